package qrcode

import (
	"encoding/base64"
	"errors"
	"net/url"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	ErrEmptyContent   = errors.New("content cannot be empty")
	ErrGenerateFailed = errors.New("failed to generate QR code")
	ErrInvalidBaseURL = errors.New("invalid menu base URL")
	ErrEmptyQRID      = errors.New("qr id cannot be empty")
)

const defaultSize = 256

// Config is read from QR_* variables.
type Config struct {
	// BaseURL is the public storefront address; codes point at BaseURL/m/{qrID}.
	BaseURL string `env:"QR_BASE_URL" envDefault:"http://localhost:3000"`
	Size    int    `env:"QR_SIZE" envDefault:"256"`
}

// Generate encodes content as a PNG of size x size pixels. Size 0 means 256.
func Generate(content string, size int) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = defaultSize
	}
	png, err := skipqrcode.Encode(content, skipqrcode.Medium, size)
	if err != nil {
		return nil, errors.Join(ErrGenerateFailed, err)
	}
	return png, nil
}

// GenerateBase64Image returns Generate's PNG as a data URI.
func GenerateBase64Image(content string, size int) (string, error) {
	png, err := Generate(content, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// Generator renders table QR codes for restaurant menus.
type Generator struct {
	base *url.URL
	size int
}

// NewGenerator validates cfg.BaseURL.
func NewGenerator(cfg Config) (*Generator, error) {
	u, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidBaseURL
	}
	return &Generator{base: u, size: cfg.Size}, nil
}

// MenuURL returns the URL encoded in the code for qrID.
func (g *Generator) MenuURL(qrID string) string {
	return g.base.JoinPath("m", qrID).String()
}

// PNG renders the menu code for qrID. A non-positive size uses the configured one.
func (g *Generator) PNG(qrID string, size int) ([]byte, error) {
	qrID = strings.TrimSpace(qrID)
	if qrID == "" {
		return nil, ErrEmptyQRID
	}
	if size <= 0 {
		size = g.size
	}
	return Generate(g.MenuURL(qrID), size)
}
