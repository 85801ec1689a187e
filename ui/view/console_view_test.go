package view

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/soocke/clerk-capture-go/domain/records"
)

func TestConsoleView_Output(t *testing.T) {
	var buf bytes.Buffer
	v := NewConsoleView(&buf)
	v.now = func() time.Time { return time.Date(2024, 1, 1, 8, 5, 9, 0, time.Local) }

	v.SetStatus("自动识别完成")
	if got := buf.String(); got != "[08:05:09] 自动识别完成\n" {
		t.Fatalf("status line %q", got)
	}
	buf.Reset()
	v.ShowPage([]records.Entry{{Nickname: "小王", OrderNumber: "A001", Merchant: "旗舰店", CreatedAt: v.now()}}, 1, 2)
	out := buf.String()
	for _, want := range []string{"客户昵称", "A001", "2024-01-01 08:05:09", "第 1/2 页"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table output missing %q:\n%s", want, out)
		}
	}
}
