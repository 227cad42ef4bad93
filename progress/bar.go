package progress

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/flowgen/flowgen/format"
)

const (
	defaultTermWidth = 80
)

type Bar struct {
	message      string
	messageWidth int

	maxValue     int64
	initialValue int64
	currentValue int64

	started time.Time
}

func NewBar(message string, maxValue, initialValue int64) *Bar {
	b := Bar{
		message:      message,
		messageWidth: -1,
		maxValue:     maxValue,
		initialValue: initialValue,
		currentValue: initialValue,
		started:      time.Now(),
	}

	return &b
}

func (b *Bar) String() string {
	termWidth, _, err := term.GetSize(int(os.Stderr.Fd()))
	if err != nil {
		termWidth = defaultTermWidth
	}

	var pre strings.Builder
	if len(b.message) > 0 {
		message := strings.TrimSpace(b.message)
		if b.messageWidth > 0 && len(message) > b.messageWidth {
			message = message[:b.messageWidth]
		}
		fmt.Fprintf(&pre, "%s", message)
		if b.messageWidth-len(message) >= 0 {
			pre.WriteString(strings.Repeat(" ", b.messageWidth-len(message)))
		}
		pre.WriteString(" ")
	}

	fmt.Fprintf(&pre, "%3.0f%%", b.percent())

	var suf strings.Builder
	// max 13 characters: "999 MB/999 MB"
	if b.stopped() {
		suf.WriteString(format.HumanBytes(b.maxValue))
	} else {
		fmt.Fprintf(&suf, "%s/%s", format.HumanBytes(b.currentValue), format.HumanBytes(b.maxValue))
	}

	mid := " "
	// add 5 extra spaces: 2 boundary characters and 1 space at each end
	f := termWidth - pre.Len() - suf.Len() - 5
	if f > 0 {
		n := int(float64(f) * b.percent() / 100)
		var mb strings.Builder
		mb.WriteString(" ▕")
		mb.WriteString(strings.Repeat("█", n))
		mb.WriteString(strings.Repeat(" ", f-n))
		mb.WriteString("▏ ")
		mid = mb.String()
	}

	return pre.String() + mid + suf.String()
}

func (b *Bar) Set(value int64) {
	if value >= b.maxValue {
		value = b.maxValue
	}

	b.currentValue = value
}

func (b *Bar) percent() float64 {
	if b.maxValue > 0 {
		return float64(b.currentValue) / float64(b.maxValue) * 100
	}

	return 0
}

func (b *Bar) stopped() bool {
	return b.currentValue >= b.maxValue
}
