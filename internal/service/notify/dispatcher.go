// Package notify 提供尽力而为的通知发送
// 发送失败只记录日志和指标，不影响触发通知的业务操作
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"go.uber.org/zap"

	"github.com/dumeirei/spacer-backend/internal/common/crypto"
	"github.com/dumeirei/spacer-backend/internal/common/logger"
	"github.com/dumeirei/spacer-backend/internal/models"
	"github.com/dumeirei/spacer-backend/pkg/email"
)

// 通知类型
const (
	KindWelcome          = "welcome"
	KindPaymentConfirmed = "payment_confirmed"
	KindInvoiceIssued    = "invoice_issued"
)

// 发送结果
const (
	ResultSent   = "sent"
	ResultFailed = "failed"
)

// DefaultSendTimeout 单次发送超时
const DefaultSendTimeout = 10 * time.Second

// Recorder 通知指标记录
type Recorder interface {
	RecordNotification(kind, result string)
}

var templates = template.Must(template.New("notify").Parse(`
{{define "welcome"}}<p>Hi {{.Name}},</p>
<p>Welcome to Spacer! Your {{.Role}} account is ready.</p>{{end}}
{{define "payment_confirmed"}}<p>Hi {{.Name}},</p>
<p>Your payment of {{printf "%.2f" .Amount}} ({{.Method}}) for booking #{{.BookingID}} has been confirmed.</p>{{end}}
{{define "invoice_issued"}}<p>Hi {{.Name}},</p>
<p>Invoice {{.InvoiceNo}} for booking #{{.BookingID}} has been issued.</p>
<p><a href="{{.InvoiceURL}}">View invoice</a></p>{{end}}
`))

// Dispatcher 通知分发器
type Dispatcher struct {
	sender   email.Sender
	log      *zap.Logger
	recorder Recorder
	timeout  time.Duration
}

// NewDispatcher 创建通知分发器
func NewDispatcher(sender email.Sender, log *zap.Logger, recorder Recorder) *Dispatcher {
	return &Dispatcher{
		sender:   sender,
		log:      logger.OrNop(log).With(logger.Module("notify")),
		recorder: recorder,
		timeout:  DefaultSendTimeout,
	}
}

// Welcome 注册欢迎邮件
func (d *Dispatcher) Welcome(ctx context.Context, user *models.User) {
	d.dispatch(ctx, KindWelcome, user.Email, "Welcome to Spacer", map[string]interface{}{
		"Name": user.Name,
		"Role": user.Role,
	})
}

// PaymentConfirmed 支付确认邮件
func (d *Dispatcher) PaymentConfirmed(ctx context.Context, client *models.User, payment *models.Payment) {
	d.dispatch(ctx, KindPaymentConfirmed, client.Email,
		fmt.Sprintf("Payment confirmed for booking #%d", payment.BookingID),
		map[string]interface{}{
			"Name":      client.Name,
			"Amount":    payment.Amount,
			"Method":    payment.PaymentMethod,
			"BookingID": payment.BookingID,
		})
}

// InvoiceIssued 发票开具邮件
func (d *Dispatcher) InvoiceIssued(ctx context.Context, client *models.User, invoice *models.Invoice) {
	d.dispatch(ctx, KindInvoiceIssued, client.Email,
		fmt.Sprintf("Invoice %s for booking #%d", invoice.InvoiceNo, invoice.BookingID),
		map[string]interface{}{
			"Name":       client.Name,
			"InvoiceNo":  invoice.InvoiceNo,
			"InvoiceURL": invoice.InvoiceURL,
			"BookingID":  invoice.BookingID,
		})
}

func (d *Dispatcher) dispatch(ctx context.Context, kind, to, subject string, data map[string]interface{}) {
	if d == nil || d.sender == nil {
		return
	}

	err := d.send(ctx, kind, to, subject, data)
	if err != nil {
		d.log.Warn("notification dispatch failed",
			logger.Action(kind),
			zap.String("to", crypto.MaskEmail(to)),
			zap.Error(err),
		)
		d.record(kind, ResultFailed)
		return
	}

	d.log.Debug("notification sent", logger.Action(kind), zap.String("to", crypto.MaskEmail(to)))
	d.record(kind, ResultSent)
}

func (d *Dispatcher) send(ctx context.Context, kind, to, subject string, data map[string]interface{}) error {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, kind, data); err != nil {
		return fmt.Errorf("render %s: %w", kind, err)
	}

	// 请求已结束时仍需完成发送
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	return d.sender.Send(ctx, to, subject, body.String())
}

func (d *Dispatcher) record(kind, result string) {
	if d.recorder != nil {
		d.recorder.RecordNotification(kind, result)
	}
}
