package receipt

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
)

// Line は領収書の1行 (チケットまたはトランザクション)
type Line struct {
	Label string
	URL   string
}

// Receipt は購入領収書の内容
type Receipt struct {
	SessionID  string
	EventName  string
	EventDate  time.Time
	Buyer      string
	Quantity   int
	UnitPrice  string
	TotalPrice string
	Network    string
	Tickets    []Line
	Txns       []Line
	// QRURL は QR コードにするリンク。空なら QR を出力しない
	QRURL    string
	IssuedAt time.Time
}

// Generate は領収書の PDF を生成する
func Generate(r Receipt) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	pdf.SetAutoPageBreak(false, 0)

	// --- Header ---
	pdf.SetFont("Helvetica", "B", 22)
	pdf.Cell(0, 15, "NFT TICKET PURCHASE RECEIPT")
	pdf.Ln(18)

	pdf.SetDrawColor(220, 220, 220)
	pdf.Line(15, pdf.GetY(), 195, pdf.GetY())
	pdf.Ln(8)

	// --- Summary + QR ---
	yStart := pdf.GetY()
	pdf.SetFillColor(245, 245, 245)
	pdf.Rect(15, yStart, 120, 55, "F")

	pdf.SetXY(20, yStart+7)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, "PURCHASE SUMMARY")
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 11)
	summary := []string{
		fmt.Sprintf("Event: %s", r.EventName),
		fmt.Sprintf("Date: %s", r.EventDate.UTC().Format("2006-01-02 15:04 MST")),
		fmt.Sprintf("Quantity: %d", r.Quantity),
		fmt.Sprintf("Unit Price: %s", r.UnitPrice),
		fmt.Sprintf("Total Paid: %s", r.TotalPrice),
	}
	for _, s := range summary {
		pdf.SetX(20)
		pdf.Cell(0, 8, s)
		pdf.Ln(6)
	}

	if r.QRURL != "" {
		qrBytes, err := qrcode.Encode(r.QRURL, qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("failed to encode QR code: %w", err)
		}
		pdf.RegisterImageOptionsReader("qr", gofpdf.ImageOptions{ImageType: "png"}, bytes.NewReader(qrBytes))
		pdf.ImageOptions("qr", 145, yStart+5, 45, 0, false, gofpdf.ImageOptions{ImageType: "png"}, 0, "")
	}

	pdf.SetY(yStart + 63)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.Cell(0, 6, "Scan the QR code to view the transaction on the block explorer.")
	pdf.Ln(10)

	// --- Wallet ---
	drawSectionTitle(pdf, "WALLET")
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 7, fmt.Sprintf("Buyer: %s", r.Buyer))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Network: %s", r.Network))
	pdf.Ln(10)

	drawLines(pdf, "TICKETS", r.Tickets)
	drawLines(pdf, "TRANSACTIONS", r.Txns)

	// --- Footer ---
	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(15, 285, 195, 285)
	pdf.SetY(288)
	pdf.SetFont("Helvetica", "I", 9)
	footer := fmt.Sprintf("Receipt %s issued %s", r.SessionID, r.IssuedAt.UTC().Format(time.RFC3339))
	pdf.CellFormat(0, 8, footer, "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawLines(pdf *gofpdf.Fpdf, title string, lines []Line) {
	drawSectionTitle(pdf, title)
	pdf.SetFont("Helvetica", "", 10)
	for i, l := range lines {
		text := fmt.Sprintf("%d. %s", i+1, l.Label)
		if l.URL != "" {
			pdf.CellFormat(0, 7, text, "", 1, "L", false, 0, l.URL)
		} else {
			pdf.CellFormat(0, 7, text, "", 1, "L", false, 0, "")
		}
	}
	pdf.Ln(4)
}

func drawSectionTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(0, 9, title, "", 1, "L", true, 0, "")
	pdf.Ln(3)
}
