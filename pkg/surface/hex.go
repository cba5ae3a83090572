package surface

import "encoding/hex"

// hexDecode and hexEncode handle the sysex record's hex-encoded byte field.
func hexDecode(s string) ([]byte, error) { return hex.DecodeString(s) }

func hexEncode(b []byte) string { return hex.EncodeToString(b) }
