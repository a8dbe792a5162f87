// Package units converts values between unit expressions.
//
// A unit token is parsed into an [Expr] of one of four shapes:
//
//   - simple: a registry literal such as "in" or "m^3"
//   - prefixed: a metric prefix and a literal, "km", "mbar"
//   - powered: a term raised to a real exponent, "in^2", "s^-1"
//   - composite: terms joined by '*', "lb*ft^2", "kg*m^2*s^-1"
//
// Conversions are resolved once into a [Conversion] and then applied to
// scalars, slices or grids:
//
//	c, err := units.NewConversion("ft*s^-1", "m*s^-1")
//	vs := c.ApplyAll(velocities)
//
// Composite components are matched in order. "N*m" and "m*N" are not
// interchangeable. Temperature offsets apply only to a lone temperature
// unit.
package units
