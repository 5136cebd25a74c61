package media

import (
	"encoding/base64"
	"errors"
	"strings"
)

const dataURLBase64Marker = ";base64,"

// ErrMalformedDataURL is returned by DecodeDataURL.
var ErrMalformedDataURL = errors.New("malformed data URL")

// DataURL encodes data as "data:<mime>;base64,<payload>".
func DataURL(mimeType string, data []byte) string {
	var sb strings.Builder
	sb.Grow(len("data:") + len(mimeType) + len(dataURLBase64Marker) + base64.StdEncoding.EncodedLen(len(data)))
	sb.WriteString("data:")
	sb.WriteString(mimeType)
	sb.WriteString(dataURLBase64Marker)
	sb.WriteString(base64.StdEncoding.EncodeToString(data))
	return sb.String()
}

// DecodeDataURL splits a base64 data URL back into its MIME type and bytes.
func DecodeDataURL(url string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return "", nil, ErrMalformedDataURL
	}
	mimeType, payload, ok := strings.Cut(rest, dataURLBase64Marker)
	if !ok || mimeType == "" {
		return "", nil, ErrMalformedDataURL
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, errors.Join(ErrMalformedDataURL, err)
	}
	return mimeType, data, nil
}
