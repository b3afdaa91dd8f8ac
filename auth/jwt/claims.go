package jwt

import (
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// TimePrecision is the resolution of iat, nbf and exp in issued tokens.
const TimePrecision = time.Millisecond

func init() {
	gojwt.TimePrecision = TimePrecision
}

// Claims is the payload of an authgate access token.
type Claims struct {
	gojwt.RegisteredClaims
	Roles []string `json:"roles"`
}

func ceil(t time.Time) time.Time {
	if r := t.Truncate(TimePrecision); !r.Equal(t) {
		return r.Add(TimePrecision)
	}
	return t
}

// claimTime undoes the float64 round trip of a NumericDate, which can land a
// few hundred nanoseconds below the encoded millisecond.
func claimTime(d *gojwt.NumericDate) time.Time {
	return d.Time.Round(TimePrecision)
}
