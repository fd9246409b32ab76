package validator

import "errors"

var (
	ErrPinNotDigits  = errors.New("PIN must contain only digits")
	ErrPinLength     = errors.New("PIN must be 4 to 6 digits long")
	ErrPinRepeated   = errors.New("PIN must not repeat a single digit")
	ErrPinSequential = errors.New("PIN must not be a sequential run of digits")
	ErrPinCommon     = errors.New("PIN is too common")
)

var commonPins = map[string]struct{}{
	"0000": {}, "1111": {}, "2222": {}, "3333": {}, "4444": {},
	"5555": {}, "6666": {}, "7777": {}, "8888": {}, "9999": {},
	"1234": {}, "4321": {}, "0123": {}, "3210": {}, "9876": {},
	"6789": {}, "1212": {}, "6969": {}, "2580": {}, "0852": {},
	"1004": {}, "2000": {}, "1122": {}, "1313": {}, "2001": {},
}

// ValidatePIN applies the complexity rules for new PINs. It returns the
// first rule the candidate breaks; callers surface the message as-is.
func ValidatePIN(pin string) error {
	for _, r := range pin {
		if r < '0' || r > '9' {
			return ErrPinNotDigits
		}
	}
	if len(pin) < 4 || len(pin) > 6 {
		return ErrPinLength
	}
	if isRepeated(pin) {
		return ErrPinRepeated
	}
	if isSequential(pin) {
		return ErrPinSequential
	}
	if _, ok := commonPins[pin]; ok {
		return ErrPinCommon
	}
	return nil
}

func isRepeated(pin string) bool {
	for i := 1; i < len(pin); i++ {
		if pin[i] != pin[0] {
			return false
		}
	}
	return true
}

func isSequential(pin string) bool {
	ascending := true
	descending := true
	for i := 1; i < len(pin); i++ {
		if pin[i] != pin[i-1]+1 {
			ascending = false
		}
		if pin[i] != pin[i-1]-1 {
			descending = false
		}
	}
	return ascending || descending
}
