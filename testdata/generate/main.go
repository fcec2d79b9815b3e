// Command generate produces sample payroll fixtures: a multi-page payslip
// text document (form-feed separated) and a matching roster CSV with valid
// IBANs.
//
// Usage: go run testdata/generate/main.go [outdir]
package main

import (
	"fmt"
	"log"
	"math/big"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

var employees = []struct {
	Name   string
	Amount string // German format
}{
	{"Michael Richter", "7.633,63"},
	{"Anna Schneider", "4.210,00"},
	{"Jürgen Weiß", "3.977,45"},
	{"Sofia Brandt", "5.102,18"},
}

func main() {
	outDir := "testdata"
	if len(os.Args) > 1 {
		outDir = os.Args[1]
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatalf("create output dir: %v", err)
	}

	rng := rand.New(rand.NewSource(42))

	// Roster CSV.
	var csv strings.Builder
	csv.WriteString("name,iban,zielordner\n")
	for _, emp := range employees {
		fmt.Fprintf(&csv, "%s,%s,%s\n", emp.Name, randomGermanIBAN(rng),
			filepath.Join(outDir, "out"))
	}
	rosterPath := filepath.Join(outDir, "roster.csv")
	if err := os.WriteFile(rosterPath, []byte(csv.String()), 0o644); err != nil {
		log.Fatalf("write roster: %v", err)
	}
	log.Printf("Wrote %s (%d employees)", rosterPath, len(employees))

	// Payslip document: one page per employee plus one unmatchable page.
	var pages []string
	for _, emp := range employees {
		pages = append(pages, payslipPage(rng, emp.Name, emp.Amount))
	}
	pages = append(pages, "Deckblatt\nLohnabrechnungen Februar 2026\n")

	docPath := filepath.Join(outDir, "payslips.txt")
	if err := os.WriteFile(docPath, []byte(strings.Join(pages, "\f")), 0o644); err != nil {
		log.Fatalf("write document: %v", err)
	}
	log.Printf("Wrote %s (%d pages)", docPath, len(pages))
}

func payslipPage(rng *rand.Rand, name, amount string) string {
	return fmt.Sprintf(`Lohnabrechnung Februar 2026

Mitarbeiter: %s
Personalnummer: %04d

Bruttogehalt            Steuern              Auszahlungsbetrag
siehe Anlage            siehe Anlage         %s EUR
`, name, rng.Intn(10000), amount)
}

// randomGermanIBAN builds a MOD-97 valid DE IBAN with random bank code and
// account number.
func randomGermanIBAN(rng *rand.Rand) string {
	body := make([]byte, 18)
	for i := range body {
		body[i] = byte('0' + rng.Intn(10))
	}
	// Compute check digits: digits of body + "DE00", letters expanded.
	expanded := string(body) + "131400" // D=13, E=14, 00
	n, _ := new(big.Int).SetString(expanded, 10)
	check := 98 - new(big.Int).Mod(n, big.NewInt(97)).Int64()
	return fmt.Sprintf("DE%02d%s", check, body)
}
