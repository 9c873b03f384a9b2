package converter

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimalPDF renders a structurally valid PDF with the given number of empty
// pages, computing the xref offsets as it goes.
func minimalPDF(pages int) []byte {
	var b bytes.Buffer
	var offsets []int
	obj := func(format string, a ...any) {
		offsets = append(offsets, b.Len())
		fmt.Fprintf(&b, format, a...)
	}

	b.WriteString("%PDF-1.4\n")
	kids := ""
	for i := 0; i < pages; i++ {
		kids += fmt.Sprintf("%d 0 R ", 3+i)
	}
	obj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	obj("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d /Resources << >> /MediaBox [0 0 612 792] >>\nendobj\n", kids, pages)
	for i := 0; i < pages; i++ {
		obj("%d 0 obj\n<< /Type /Page /Parent 2 0 R >>\nendobj\n", 3+i)
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, o := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", o)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return b.Bytes()
}

func TestPageCount(t *testing.T) {
	n, err := PageCount(minimalPDF(3))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestPageCount_NotAPDF(t *testing.T) {
	_, err := PageCount([]byte("%PDF-1.4 but not really"))
	assert.Error(t, err)
}
