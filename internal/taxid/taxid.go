// Package taxid implements the Turkish tax identifier checksums:
// VKN (10 digits, legal entities) and TCKN (11 digits, individuals).
//
// Validate never fails: every input, malformed or not, yields a Result.
package taxid

// Kind identifies which identifier family a number belongs to
type Kind string

const (
	KindVKN     Kind = "VKN"
	KindTCKN    Kind = "TCKN"
	KindInvalid Kind = "Invalid"
)

// Reasons reported for invalid input
const (
	ReasonMalformed        = "malformed"
	ReasonChecksumMismatch = "checksum mismatch"
	ReasonLeadingZero      = "leading zero"
)

const (
	vknLength  = 10
	tcknLength = 11
)

// Result is the verdict for a single tax number
type Result struct {
	Valid  bool   `json:"valid"`
	Kind   Kind   `json:"kind"`
	Reason string `json:"reason,omitempty"`
}

// Validate checks a VKN or TCKN
func Validate(taxNumber string) Result {
	digits, ok := toDigits(taxNumber)
	if !ok {
		return invalid(ReasonMalformed)
	}

	switch len(digits) {
	case vknLength:
		if !vknChecksum(digits) {
			return invalid(ReasonChecksumMismatch)
		}
		return Result{Valid: true, Kind: KindVKN}
	case tcknLength:
		if digits[0] == 0 {
			return invalid(ReasonLeadingZero)
		}
		if !tcknChecksum(digits) {
			return invalid(ReasonChecksumMismatch)
		}
		return Result{Valid: true, Kind: KindTCKN}
	default:
		return invalid(ReasonMalformed)
	}
}

// IsValid reports whether s is a valid VKN or TCKN
func IsValid(s string) bool {
	return Validate(s).Valid
}

// IsVKN reports whether s is a valid VKN
func IsVKN(s string) bool {
	r := Validate(s)
	return r.Valid && r.Kind == KindVKN
}

// IsTCKN reports whether s is a valid TCKN
func IsTCKN(s string) bool {
	r := Validate(s)
	return r.Valid && r.Kind == KindTCKN
}

func invalid(reason string) Result {
	return Result{Valid: false, Kind: KindInvalid, Reason: reason}
}

func toDigits(s string) ([]int, bool) {
	if len(s) != vknLength && len(s) != tcknLength {
		return nil, false
	}
	digits := make([]int, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return nil, false
		}
		digits[i] = int(c - '0')
	}
	return digits, true
}

// vknChecksum validates d10 against the first nine digits.
// For i = 1..9: tmp = (d_i + 10 - i) mod 10; c_i = 9 if tmp == 9,
// else (tmp * 2^(10-i)) mod 9. Check digit is (10 - sum mod 10) mod 10.
func vknChecksum(d []int) bool {
	sum := 0
	for i := 1; i <= 9; i++ {
		tmp := (d[i-1] + (10 - i)) % 10
		if tmp == 9 {
			sum += tmp
			continue
		}
		sum += (tmp * (1 << uint(10-i))) % 9
	}
	check := (10 - sum%10) % 10
	return d[9] == check
}

// tcknChecksum validates d10 and d11.
func tcknChecksum(d []int) bool {
	odd := d[0] + d[2] + d[4] + d[6] + d[8]
	even := d[1] + d[3] + d[5] + d[7]

	d10 := mod10(odd*7 - even)
	d11 := mod10(odd + even + d10)

	return d[9] == d10 && d[10] == d11
}

func mod10(n int) int {
	return ((n % 10) + 10) % 10
}
