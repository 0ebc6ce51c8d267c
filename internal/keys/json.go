package keys

// MarshalText implements encoding.TextMarshaler using base-58.
func (p PublicKey) MarshalText() ([]byte, error) {
	return []byte(p.Base58()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler from base-58.
func (p *PublicKey) UnmarshalText(text []byte) error {
	pk, err := FromBase58(string(text))
	if err != nil {
		return err
	}
	*p = pk
	return nil
}
