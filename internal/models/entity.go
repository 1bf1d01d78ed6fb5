package models

// EntityType identifies which kind of platform record an Entity wraps.
type EntityType string

const (
	EntityTrial       EntityType = "trial"
	EntityPublication EntityType = "publication"
	EntityExpert      EntityType = "expert"
	EntityThread      EntityType = "thread"
)

// Entity is a raw server payload plus its declared variant. The platform
// mixes internal records with externally-fetched literature and expert
// profiles, so no field can be assumed present; identity is resolved through
// the priority chains in the identity package.
type Entity struct {
	Type   EntityType     `json:"type"`
	Fields map[string]any `json:"item"`
}

// StringField returns the named field if it exists as a non-empty string.
func (e Entity) StringField(name string) (string, bool) {
	if e.Fields == nil {
		return "", false
	}
	v, ok := e.Fields[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// DisplayTitle returns the human-facing label of the entity, used as the
// soft fallback when matching legacy favorites that lack a stable id.
func (e Entity) DisplayTitle() string {
	for _, field := range []string{"title", "name"} {
		if s, ok := e.StringField(field); ok {
			return s
		}
	}
	return ""
}

// ValidType reports whether t is one of the known entity variants.
func ValidType(t EntityType) bool {
	switch t {
	case EntityTrial, EntityPublication, EntityExpert, EntityThread:
		return true
	}
	return false
}
