package notify

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/polyclob/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier y pinta en tablas el resto de salidas del CLI.
type Console struct {
	out   io.Writer
	table bool
	now   func() time.Time
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table, now: time.Now}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table, now: time.Now}
}

// Notify imprime los eventos en el modo configurado.
func (c *Console) Notify(_ context.Context, events []domain.LiveEvent) error {
	if len(events) == 0 {
		fmt.Fprintf(c.out, "[%s] no live events found\n", c.now().Format("15:04:05"))
		return nil
	}

	if c.table {
		c.printEvents(events)
	} else {
		c.printCompact(events)
	}
	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(events []domain.LiveEvent) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d events, %d live", c.now().Format("15:04:05"), len(events), countLive(events))

	for i, ev := range events {
		if i >= 4 {
			break
		}
		fmt.Fprintf(&sb, " | %s %s %.0f", categoryTag(ev.Category),
			compactName(ev.Market.Question, 25), ev.BettingScore)
	}
	fmt.Fprintln(c.out, sb.String())
}

func (c *Console) printEvents(events []domain.LiveEvent) {
	fmt.Fprintf(c.out, "\n[%s] %d events (%d live)\n",
		c.now().Format("15:04:05"), len(events), countLive(events))

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Cat", "Market", "Score", "Volume", "Liquidity", "Spread", "Closes", "Live")

	for i, ev := range events {
		live := ""
		if ev.IsLive {
			live = "LIVE"
		}
		if ev.HasLiveUpdates {
			live += "*"
		}
		table.Append(
			fmt.Sprintf("%d", i+1),
			categoryTag(ev.Category),
			domain.TruncateQuestion(ev.Market.Question, ev.Market.ID, 40),
			fmt.Sprintf("%.0f", ev.BettingScore),
			fmt.Sprintf("$%.0f", ev.Market.Volume),
			fmt.Sprintf("$%.0f", ev.Market.Liquidity),
			fmt.Sprintf("%.3f", ev.Spread),
			hoursLabel(ev.HoursToClose),
			live,
		)
	}
	table.Render()

	fmt.Fprintln(c.out, "  Score = volume 30 + liquidity 25 + spread 25 + urgency 20 | * = live updates")
}

// PrintOrderBook imprime los mejores niveles de cada lado del libro.
func (c *Console) PrintOrderBook(book domain.OrderBook, depth int) {
	if depth <= 0 {
		depth = 10
	}
	fmt.Fprintf(c.out, "\nBook %s  bid %.4f  ask %.4f  mid %.4f  spread %.4f\n",
		compactName(book.TokenID, 20), book.BestBid(), book.BestAsk(), book.Midpoint(), book.Spread())

	table := tablewriter.NewWriter(c.out)
	table.Header("Bid size", "Bid", "Ask", "Ask size")

	rows := max(min(len(book.Bids), depth), min(len(book.Asks), depth))
	for i := 0; i < rows; i++ {
		var bidSize, bid, ask, askSize string
		if i < len(book.Bids) {
			bid = fmt.Sprintf("%.4f", book.Bids[i].Price)
			bidSize = fmt.Sprintf("%.2f", book.Bids[i].Size)
		}
		if i < len(book.Asks) {
			ask = fmt.Sprintf("%.4f", book.Asks[i].Price)
			askSize = fmt.Sprintf("%.2f", book.Asks[i].Size)
		}
		table.Append(bidSize, bid, ask, askSize)
	}
	table.Render()

	fmt.Fprintf(c.out, "  Depth: bids $%.2f | asks $%.2f\n\n",
		domain.DepthUSDC(book.Bids), domain.DepthUSDC(book.Asks))
}

// PrintOpenOrders imprime las órdenes vivas de la cuenta.
func (c *Console) PrintOpenOrders(orders []domain.OpenOrder) {
	fmt.Fprintf(c.out, "\n── OPEN ORDERS (%d) ──\n", len(orders))
	if len(orders) == 0 {
		fmt.Fprintln(c.out, "  (none)")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("ID", "Token", "Side", "Price", "Size", "Matched", "Status", "Age")
	for _, o := range orders {
		age := "-"
		if !o.CreatedAt.IsZero() {
			age = c.now().Sub(o.CreatedAt).Truncate(time.Minute).String()
		}
		table.Append(
			shortID(o.ID),
			shortID(o.TokenID),
			string(o.Side),
			fmt.Sprintf("%.4f", o.Price),
			fmt.Sprintf("%.2f", o.OriginalSize),
			fmt.Sprintf("%.2f", o.SizeMatched),
			o.Status,
			age,
		)
	}
	table.Render()
}

// PrintPlaced imprime el resultado de una colocación.
func (c *Console) PrintPlaced(o domain.PlacedOrder) {
	fmt.Fprintf(c.out, "placed %s %s %.2f @ %.4f  id=%s status=%s\n",
		o.Side, shortID(o.TokenID), o.Size, o.Price, o.OrderID, o.Status)
}

// PrintCancel imprime el resultado de una cancelación.
func (c *Console) PrintCancel(r domain.CancelResult) {
	if r.Success {
		fmt.Fprintf(c.out, "cancelled %s\n", r.OrderID)
		return
	}
	fmt.Fprintf(c.out, "cancel failed %s: %s\n", r.OrderID, r.Message)
}

// PrintJournal imprime las últimas entradas del journal local.
func (c *Console) PrintJournal(entries []domain.JournalEntry) {
	fmt.Fprintf(c.out, "\n── JOURNAL (%d) ──\n", len(entries))
	if len(entries) == 0 {
		fmt.Fprintln(c.out, "  (empty)")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("When", "Kind", "Order", "Side", "Price", "Size", "Result")
	for _, e := range entries {
		result := e.Status
		if e.Kind == "cancel" {
			result = "ok"
			if !e.Success {
				result = "failed: " + e.Message
			}
		}
		var side, price, size string
		if e.Side != "" {
			side = string(e.Side)
			price = fmt.Sprintf("%.4f", e.Price)
			size = fmt.Sprintf("%.2f", e.Size)
		}
		table.Append(
			e.RecordedAt.Local().Format("01-02 15:04:05"),
			e.Kind,
			shortID(e.OrderID),
			side,
			price,
			size,
			result,
		)
	}
	table.Render()
}

// --- helpers ---

func countLive(events []domain.LiveEvent) int {
	n := 0
	for _, ev := range events {
		if ev.IsLive {
			n++
		}
	}
	return n
}

func categoryTag(category string) string {
	switch category {
	case domain.CategorySports:
		return "SPT"
	case domain.CategoryPolitics:
		return "POL"
	case domain.CategoryNews:
		return "NEW"
	case domain.CategoryCrypto:
		return "CRY"
	case domain.CategoryFinance:
		return "FIN"
	}
	return "-"
}

func hoursLabel(hours float64) string {
	switch {
	case math.IsInf(hours, 1):
		return "-"
	case hours < 0:
		return "closed"
	case hours < 1:
		return fmt.Sprintf("%.0fm", hours*60)
	case hours < 48:
		return fmt.Sprintf("%.0fh", math.Round(hours))
	}
	return fmt.Sprintf("%.0fd", hours/24)
}

func shortID(id string) string {
	if r := []rune(id); len(r) > 14 {
		return string(r[:10]) + "..."
	}
	return id
}

func compactName(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	cut := string(r[:maxLen])
	if idx := strings.LastIndex(cut, " "); idx > len(cut)/2 {
		cut = cut[:idx]
	}
	return cut + "…"
}
