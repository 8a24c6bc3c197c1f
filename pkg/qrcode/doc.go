// Package qrcode renders menu QR codes as PNG images.
//
// Each restaurant table carries a code pointing at the public storefront. Scanning
// it opens BaseURL/m/{qrID}; the storefront then reports the scan so the partner's
// monthly quota is metered.
//
//	gen, err := qrcode.NewGenerator(qrcode.Config{BaseURL: "https://menu.example.com"})
//	png, err := gen.PNG("t-12", 512)
//
// Generate and GenerateBase64Image encode arbitrary content. Empty content returns
// ErrEmptyContent; library failures are joined with ErrGenerateFailed.
package qrcode
