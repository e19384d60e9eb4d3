package model

import "github.com/shopspring/decimal"

// Column limits, counted in characters as MySQL does for utf8mb4.
const (
	NameMaxLen     = 100
	EmailMaxLen    = 255
	TitleMaxLen    = 255
	CategoryMaxLen = 100
	TextMaxLen     = 10000
)

// MaxPrice is the largest amount a single card charge can carry.
var MaxPrice = decimal.RequireFromString("999999.99")
