package extract

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"
)

func extractPlain(data []byte) (string, error) {
	return string(data), nil
}

// extractCSV flattens every row into cells joined by spaces, the same shape
// the chunker expects from any other document.
func extractCSV(data []byte) (string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	var sb strings.Builder
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strings.Join(record, " "))
	}
	return sb.String(), nil
}

func init() {
	Register("txt", extractPlain)
	Register("csv", extractCSV)
}
