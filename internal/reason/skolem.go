package reason

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/google/uuid"

	"notation3/internal/term"
)

// skolemManager mints the identifiers behind head existentials and
// log:skolem. Labels are stable within a run; across runs a random salt
// rotates the term-derived identities unless deterministic mode pins it.
type skolemManager struct {
	salt    string
	counter int
	byTerm  map[string]string
}

func newSkolemManager(deterministic bool) *skolemManager {
	salt := ""
	if !deterministic {
		salt = uuid.NewString()
	}
	return &skolemManager{salt: salt, byTerm: map[string]string{}}
}

// nextLabel mints the monotonic sk_<n> label used for head existentials.
func (m *skolemManager) nextLabel() string {
	m.counter++
	return "sk_" + strconv.Itoa(m.counter)
}

// iriForTerm maps a ground term to its skolem IRI: structurally equal terms
// share an IRI within the run.
func (m *skolemManager) iriForTerm(t *term.Term) string {
	key := t.String()
	if iri, ok := m.byTerm[key]; ok {
		return iri
	}
	sum := sha256.Sum256([]byte(m.salt + key))
	iri := term.SkolemNS + hex.EncodeToString(sum[:16])
	m.byTerm[key] = iri
	return iri
}
