package render

import (
	"strings"

	"hydrogen/pos-receipts/internal/derive"
	"hydrogen/pos-receipts/internal/models"
	"hydrogen/pos-receipts/internal/templates"
)

// Banner is printed under the logo of every receipt.
const Banner = "*** MERCHANT REPRINT ***"

// Section and row spacing.
const (
	sectionSpace = 8.0
	rowSpace     = 4.0
)

// Layout arranges the resolved values of a receipt into blocks.
type Layout interface {
	Blocks(r models.Receipt, def templates.Definition) []Block
}

var layouts = map[templates.Variant]Layout{
	templates.VariantStandard:  standardLayout{},
	templates.VariantAlternate: alternateLayout{},
}

// LayoutFor returns the layout strategy of variant, falling back to the
// standard layout.
func LayoutFor(variant templates.Variant) Layout {
	if l, ok := layouts[variant]; ok {
		return l
	}
	return standardLayout{}
}

// Render builds the detached document for rec under def. Blank values are
// shown as N/A.
func Render(rec models.Record, def templates.Definition) *Document {
	receipt := models.Resolve(rec, def)
	doc := NewDocument(LayoutFor(def.Variant).Blocks(receipt, def))
	doc.Index = rec.Index
	doc.Logo = def.Logo
	return doc
}

func logo(def templates.Definition) Block {
	return Block{Kind: KindLogo, Text: derive.Fallback(def.Logo, "HYDROGEN")}
}

func banner() Block {
	return Block{Kind: KindBanner, Text: Banner, Size: SmallText, Muted: true, Space: sectionSpace}
}

func text(s string, size float64, bold bool, space float64) Block {
	return Block{Kind: KindText, Text: s, Size: size, Bold: bold, Space: space}
}

func divider() Block {
	return Block{Kind: KindDivider, Space: sectionSpace}
}

func row(label, value string, space float64) Block {
	return Block{
		Kind:  KindRow,
		Label: strings.ToUpper(label),
		Value: derive.OrNA(value),
		Size:  SmallText,
		Space: space,
	}
}

// rows lays out label/value pairs with the section gap above the first.
func rows(pairs ...[2]string) []Block {
	blocks := make([]Block, 0, len(pairs))
	for i, p := range pairs {
		space := rowSpace
		if i == 0 {
			space = sectionSpace
		}
		blocks = append(blocks, row(p[0], p[1], space))
	}
	return blocks
}

func footer(lines []string) []Block {
	blocks := make([]Block, 0, len(lines))
	for i, line := range lines {
		space := 0.0
		if i == 0 {
			space = sectionSpace
		}
		blocks = append(blocks, Block{Kind: KindFooter, Text: line, Size: SmallText, Space: space})
	}
	return blocks
}

type standardLayout struct{}

func (standardLayout) Blocks(r models.Receipt, def templates.Definition) []Block {
	blocks := []Block{
		logo(def),
		banner(),
		text(r.Merchant, SmallText, true, sectionSpace),
		text(r.Address, SmallText, false, rowSpace),
		divider(),
		text("APPROVED", LargeText, true, sectionSpace),
		divider(),
	}

	details := [][2]string{
		{"Terminal ID", r.Terminal},
		{"Date & Time", r.DateTime},
	}
	if r.Customer != "" {
		details = append(details, [2]string{"Customer", r.Customer})
	}
	details = append(details,
		[2]string{"Card Type", r.CardType},
		[2]string{"Payment type", r.PaymentType},
		[2]string{"PAN", r.PAN},
		[2]string{"Issuer Bank", r.IssuerBank},
		[2]string{"stan", r.STAN},
		[2]string{"RRN", r.RRN},
	)
	blocks = append(blocks, rows(details...)...)

	blocks = append(blocks,
		divider(),
		text("AMOUNT: "+r.Amount, LargeText, true, sectionSpace),
		text("PURCHASE", LargeText, true, 0),
		divider(),
	)
	blocks = append(blocks, rows(
		[2]string{"Response Code", r.ResponseCode},
		[2]string{"Message", r.Message},
	)...)
	blocks = append(blocks, divider())
	return append(blocks, footer(def.Footer)...)
}

type alternateLayout struct{}

func (alternateLayout) Blocks(r models.Receipt, def templates.Definition) []Block {
	blocks := []Block{
		logo(def),
		banner(),
		text(r.Merchant, SmallText, true, sectionSpace),
		divider(),
		text("PURCHASE", LargeText, true, sectionSpace),
		text(r.Amount, LargeText, true, 0),
		divider(),
		text("*** Approved ***", LargeText, true, sectionSpace),
		text(r.Date, SmallText, false, rowSpace),
		divider(),
	}
	blocks = append(blocks, rows(
		[2]string{"Terminal ID:", r.Terminal},
		[2]string{"PAN:", r.PAN},
		[2]string{"Name:", r.Customer},
		[2]string{"Expiry Date:", r.Expiry},
		[2]string{"PIN Verified", r.PINVerified},
	)...)
	blocks = append(blocks, divider())
	blocks = append(blocks, rows(
		[2]string{"RRN", r.RRN},
		[2]string{"stan", r.STAN},
		[2]string{"Response Code", r.ResponseCode},
	)...)
	blocks = append(blocks, divider())
	return append(blocks, footer(def.Footer)...)
}
