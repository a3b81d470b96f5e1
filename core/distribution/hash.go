package distribution

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// normalizedRow is a row reduced to its canonical form for hashing: trimmed
// strings, finite numbers (anything else coerced to 0), only the kind's own
// metric fields.
type normalizedRow struct {
	Municipality string
	KitchenName  string
	SchoolName   string
	Metrics      map[string]float64
}

func normalizeNumber(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func normalizeRow(kind Kind, kitchenName string, in RowInput) normalizedRow {
	nr := normalizedRow{
		Municipality: strings.TrimSpace(in.Municipality),
		KitchenName:  kitchenName,
		SchoolName:   strings.TrimSpace(in.SchoolName),
		Metrics:      make(map[string]float64, len(metricFields[kind])),
	}
	for _, f := range metricFields[kind] {
		nr.Metrics[f] = normalizeNumber(in.metric(f))
	}
	return nr
}

// ContentHash computes the dedup digest for an upload: rows sorted by
// (municipality, schoolName) ordinal ascending, serialized into a canonical
// JSON document with a kind discriminator and the batch metadata, then
// SHA-256 hex. It is a pure function of its inputs; identical uploads always
// produce the same digest.
func ContentHash(kind Kind, kitchenName, sheetName string, rows []normalizedRow) string {
	sorted := make([]normalizedRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Municipality != sorted[j].Municipality {
			return sorted[i].Municipality < sorted[j].Municipality
		}
		return sorted[i].SchoolName < sorted[j].SchoolName
	})

	var b strings.Builder
	b.WriteString(`{"kind":`)
	b.Write(jsonString(string(kind)))
	b.WriteString(`,"bhssKitchenName":`)
	b.Write(jsonString(kitchenName))
	b.WriteString(`,"sheetName":`)
	b.Write(jsonString(sheetName))
	b.WriteString(`,"items":[`)
	for i, r := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(`{"municipality":`)
		b.Write(jsonString(r.Municipality))
		b.WriteString(`,"bhssKitchenName":`)
		b.Write(jsonString(r.KitchenName))
		b.WriteString(`,"schoolName":`)
		b.Write(jsonString(r.SchoolName))
		for _, f := range metricFields[kind] {
			b.WriteString(`,"`)
			b.WriteString(f)
			b.WriteString(`":`)
			b.WriteString(strconv.FormatFloat(r.Metrics[f], 'f', -1, 64))
		}
		b.WriteByte('}')
	}
	b.WriteString(`]}`)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func jsonString(s string) []byte {
	b, _ := json.Marshal(s)
	return b
}
