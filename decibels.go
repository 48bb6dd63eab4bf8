package zoog

import "fmt"

// Decibels is a loudness or gain value expressed in dB. It is closed under
// addition and subtraction with another Decibels.
type Decibels float64

// Add returns d + other.
func (d Decibels) Add(other Decibels) Decibels { return d + other }

// Sub returns d - other.
func (d Decibels) Sub(other Decibels) Decibels { return d - other }

// Float64 returns the underlying value.
func (d Decibels) Float64() float64 { return float64(d) }

func (d Decibels) String() string { return fmt.Sprintf("%v dB", float64(d)) }
