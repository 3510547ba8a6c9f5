//go:build !tinygo

package pipeline

import "github.com/golang/glog"

// LogReporter writes reports to glog.
type LogReporter struct{}

// Report implements Reporter.
func (LogReporter) Report(r *Report) {
	glog.Infof("uptime %dms: frames %d, tx bytes %d packets %d irqs %d rejected %d",
		r.UptimeMs, r.FramesSent, r.Tx.BytesSent, r.Tx.PacketsSent,
		r.Tx.InterruptsServiced, r.Tx.SendRejections)
	glog.Infof("ring avail %d overflow %d pushed %d, timer %d missed %d, busy %d%% peak %d%%",
		r.RingAvailable, r.RingOverflows, r.RingPushed, r.TimerTicks,
		r.MissedDeadlines, r.Busy.Percent, r.PeakBusy)
	if r.Busy.Recalibrate {
		glog.Warningf("busy estimate %d%% below zero, idle rate needs recalibration", r.Busy.Raw)
	}
}
