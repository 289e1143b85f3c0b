package types

import (
	"time"

	"github.com/mesh-intelligence/loom/pkg/lingua"
)

// NewEntityType materializes a definition into an EntityType, filling
// derivable display forms from the deterministic deriver. Caller-supplied
// forms always win over derived ones.
func NewEntityType(def EntityTypeDef) *EntityType {
	forms := lingua.Derive(def.Name)
	et := &EntityType{
		Name:        def.Name,
		Singular:    def.Singular,
		Plural:      def.Plural,
		Slug:        def.Slug,
		Description: def.Description,
		Schema:      def.Schema,
		CreatedAt:   time.Now(),
	}
	if et.Singular == "" {
		et.Singular = forms.Singular
	}
	if et.Plural == "" {
		et.Plural = forms.Plural
	}
	if et.Slug == "" {
		et.Slug = forms.Slug
	}
	return et
}

// NewRelationType materializes a definition into a RelationType, filling
// conjugations from the deriver. The reverse-reference field names are
// rebuilt from the effective past form so overrides propagate into them.
func NewRelationType(def RelationTypeDef) *RelationType {
	conj := lingua.Conjugate(def.Name)
	rt := &RelationType{
		Name:           def.Name,
		Imperative:     def.Imperative,
		Present:        def.Present,
		Gerund:         def.Gerund,
		Past:           def.Past,
		PastParticiple: def.PastParticiple,
		Inverse:        def.Inverse,
		Description:    def.Description,
		CreatedAt:      time.Now(),
	}
	if rt.Imperative == "" {
		rt.Imperative = conj.Imperative
	}
	if rt.Present == "" {
		rt.Present = conj.Present
	}
	if rt.Gerund == "" {
		rt.Gerund = conj.Gerund
	}
	if rt.Past == "" {
		rt.Past = conj.Past
	}
	if rt.PastParticiple == "" {
		rt.PastParticiple = rt.Past
	}
	rt.ByField = rt.Past + "By"
	rt.AtField = rt.Past + "At"
	return rt
}
