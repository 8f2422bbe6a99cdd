package metrics

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// 状态流转
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freightlane_transitions_total",
		Help: "Total number of recorded status transitions.",
	}, []string{"entity", "to"})
	TransitionRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freightlane_transition_rejections_total",
		Help: "Total number of rejected transition attempts by error kind.",
	}, []string{"entity", "kind"})

	// 合规校验
	ComplianceDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freightlane_compliance_decisions_total",
		Help: "Total number of compliance gate decisions.",
	}, []string{"operation", "result"}) // result: "permit" or "blocked"

	// 行程验证码
	OtpVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freightlane_otp_verifications_total",
		Help: "Total number of OTP verification attempts.",
	}, []string{"request_type", "result"})

	// 实时事件
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freightlane_events_published_total",
		Help: "Total number of realtime events published.",
	}, []string{"event"})
	EventDeliveryFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freightlane_event_delivery_failures_total",
		Help: "Total number of failed realtime event deliveries per sink.",
	}, []string{"sink"})
)

// RegisterDBStats 注册数据库连接池指标
func RegisterDBStats(db *sql.DB, name string) error {
	if db == nil {
		return nil
	}
	err := prometheus.Register(collectors.NewDBStatsCollector(db, name))
	if err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
	}
	return err
}

// Handler 指标抓取端点
func Handler() http.Handler {
	return promhttp.Handler()
}
