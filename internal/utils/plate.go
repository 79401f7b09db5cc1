package utils

import "strings"

// NormalizePlate canonicalizes a vehicle plate for storage and comparison:
// uppercase, no spaces or dashes. "ka-01 ab 1234" and "KA01AB1234" are the
// same vehicle.
func NormalizePlate(plate string) string {
	plate = strings.ToUpper(strings.TrimSpace(plate))
	plate = strings.ReplaceAll(plate, " ", "")
	plate = strings.ReplaceAll(plate, "-", "")
	return plate
}
