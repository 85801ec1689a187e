package view

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/soocke/clerk-capture-go/domain/records"
)

// ConsoleView renders the status line and record table as plain text.
type ConsoleView struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

// NewConsoleView writes to out.
func NewConsoleView(out io.Writer) *ConsoleView {
	return &ConsoleView{out: out, now: time.Now}
}

// SetStatus prints a timestamped status line.
func (v *ConsoleView) SetStatus(text string) {
	if v == nil || v.out == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, "[%s] %s\n", v.now().Format("15:04:05"), text)
}

// ShowPage prints one page of records in table order.
func (v *ConsoleView) ShowPage(entries []records.Entry, page, totalPages int) {
	if v == nil || v.out == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, "%-20s %-24s %-20s %s\n", "客户昵称", "订单号", "商家", "创建时间")
	for _, e := range entries {
		fmt.Fprintf(v.out, "%-20s %-24s %-20s %s\n", e.Nickname, e.OrderNumber, e.Merchant, e.CreatedAt.Format(records.TimeLayout))
	}
	fmt.Fprintf(v.out, "第 %d/%d 页\n", page, totalPages)
}
