package source

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/trustgate/internal/model"
)

// PayloadHash returns the SHA-256 hex digest of the payload's canonical
// JSON form. Map keys are serialized in sorted order, so two payloads with
// the same fields and values always hash identically.
func PayloadHash(p model.Payload) (string, error) {
	if p == nil {
		return "", nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return "", eris.Wrap(err, "source: marshal payload for hash")
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
