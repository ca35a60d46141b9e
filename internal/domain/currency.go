package domain

// CurrencyINR is the ISO 4217 code for the platform's billing currency.
// Amounts are stored as int64 minor units (paise).
const CurrencyINR = "INR"
