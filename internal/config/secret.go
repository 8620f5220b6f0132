package config

const redacted = "[REDACTED]"

// Secret holds a credential. Formatting it in any way yields a redacted
// placeholder; Expose is the only way to get the raw value back.
type Secret string

func (s Secret) Expose() string {
	return string(s)
}

func (s Secret) String() string {
	return redacted
}

func (s Secret) GoString() string {
	return redacted
}

func (s Secret) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}
