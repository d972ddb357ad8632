package user

// cohorts is the closed set of valid group codes.
var cohorts = map[string]struct{}{
	"7a": {}, "7b": {}, "7c": {}, "7d": {}, "7e": {}, "7f": {},
	"8a": {}, "8b": {}, "8c": {}, "8d": {}, "8e": {},
	"9a": {}, "9b": {}, "9c": {}, "9d": {}, "9e": {},
	"10a": {}, "10b": {}, "10c": {}, "10d": {}, "10e": {},
	"11_1": {}, "11_2": {}, "11_3": {}, "11_4": {}, "11_5": {},
	"12_1": {}, "12_2": {}, "12_3": {}, "12_4": {}, "12_5": {},
}

// IsValidGroup reports whether group is one of the cohort codes. Matching is exact.
func IsValidGroup(group string) bool {
	_, ok := cohorts[group]
	return ok
}
