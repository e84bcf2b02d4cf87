package benchmark

import (
	"fmt"
	"strings"
	"testing"

	"github.com/amestead/wikiextract/internal/dump"
)

var sampleLines = map[string]string{
	"plain":    "Revenues grew steadily through the decade as the port expanded.",
	"element":  `      <title>Anarchism</title>`,
	"opening":  `      <text bytes="83814" xml:space="preserve">'''Anarchism''' is a political philosophy.`,
	"closing":  `and remains influential in contemporary movements.</text>`,
	"longtail": `      <id>12</id>` + strings.Repeat(" trailing prose after the element", 40),
}

func BenchmarkScan(b *testing.B) {
	for name, line := range sampleLines {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(line)))
			for i := 0; i < b.N; i++ {
				ev, ok := dump.Scan(line)
				_, _ = ev, ok
			}
		})
	}
}

func BenchmarkScanParallel(b *testing.B) {
	line := sampleLines["opening"]
	b.ReportAllocs()
	b.SetBytes(int64(len(line)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			ev, ok := dump.Scan(line)
			_, _ = ev, ok
		}
	})
}

func BenchmarkScanVaryingSize(b *testing.B) {
	sizes := []int{64, 256, 1024, 8192}
	filler := "wiki markup with ''emphasis'' and [[links]] but no angle brackets "
	for _, size := range sizes {
		line := strings.Repeat(filler, size/len(filler)+1)[:size]
		b.Run(fmt.Sprintf("bytes_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(line)))
			for i := 0; i < b.N; i++ {
				ev, ok := dump.Scan(line)
				_, _ = ev, ok
			}
		})
	}
}
