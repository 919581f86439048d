// Package presence 根据最后活跃时间推算在线状态
package presence

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Status 在线状态
type Status string

const (
	Online  Status = "Online"
	Away    Status = "Away"
	Offline Status = "Offline"
	Unknown Status = "Unknown"
)

const (
	OnlineWindow = 5 * time.Minute
	AwayWindow   = 60 * time.Minute
)

// Presence 状态及展示文案
type Presence struct {
	Status Status `json:"status"`
	Label  string `json:"label"`
}

var unknown = Presence{Status: Unknown, Label: string(Unknown)}

// Estimate 根据最后活跃时间计算状态，last 为空时返回 Unknown
func Estimate(last *time.Time, now time.Time) Presence {
	if last == nil || last.IsZero() {
		return unknown
	}

	elapsed := now.Sub(*last)
	switch {
	case elapsed < OnlineWindow:
		// 时钟偏差导致的未来时间也算在线
		return Presence{Status: Online, Label: string(Online)}
	case elapsed < AwayWindow:
		return Presence{Status: Away, Label: fmt.Sprintf("%d min ago", int(elapsed/time.Minute))}
	default:
		return Presence{Status: Offline, Label: humanize.RelTime(*last, now, "ago", "from now")}
	}
}
