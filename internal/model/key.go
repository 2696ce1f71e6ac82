package model

import "time"

// TranslationKey is catalogue reference data, read-only to the runtime core.
// InterpolationVars is the whitelist of variable names the resolver may substitute.
type TranslationKey struct {
	ID                    int64
	KeyName               string
	Category              string
	Namespace             string
	Description           *string
	InterpolationVars     []string
	SupportsPluralization bool
	Priority              int
	IsActive              bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Section returns the first dotted segment of the key name.
func (k TranslationKey) Section() string {
	for i := 0; i < len(k.KeyName); i++ {
		if k.KeyName[i] == '.' {
			return k.KeyName[:i]
		}
	}
	return k.KeyName
}
