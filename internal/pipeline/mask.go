package pipeline

// MaskPAN renders a card number with only the last four digits exposed.
// Inputs shorter than four characters mask completely.
func MaskPAN(raw string) string {
	if len(raw) < 4 {
		return "****"
	}
	return "**** **** **** " + raw[len(raw)-4:]
}
