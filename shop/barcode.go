/*
barcode.go - GTIN barcode validation

PURPOSE:
  Validates product barcodes before any catalog lookup or mutation is
  attempted. Accepted formats are GTIN-12, GTIN-13 and GTIN-14: digits
  only, with the standard weighted-sum check digit.

ALGORITHM:
  Walking the digits right-to-left and excluding the final check digit,
  digits at even offsets weigh 3 and digits at odd offsets weigh 1.
  The check digit must bring the weighted sum up to a multiple of 10.

EXAMPLE:
  12345678901231 -> weighted sum 109 -> check (10 - 9) % 10 = 1 -> valid
*/
package shop

// ValidBarcode reports whether code is a checksum-valid GTIN-12/13/14.
func ValidBarcode(code string) bool {
	if len(code) < 12 || len(code) > 14 {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}

	sum := 0
	// Rightmost digit is the check digit; weights alternate 3,1 moving left.
	for i := 0; i < len(code)-1; i++ {
		digit := int(code[len(code)-2-i] - '0')
		if i%2 == 0 {
			sum += digit * 3
		} else {
			sum += digit
		}
	}
	check := (10 - sum%10) % 10
	return check == int(code[len(code)-1]-'0')
}
