// Package email 邮件发送服务
package email

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Sender 邮件发送器接口
type Sender interface {
	Send(ctx context.Context, to, subject, html string) error
}

// DefaultSendGridHost SendGrid API 地址
const DefaultSendGridHost = "https://api.sendgrid.com"

// SendGridConfig SendGrid 配置
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	Host      string // 为空时使用 DefaultSendGridHost
}

// SendGridSender SendGrid 邮件发送器
type SendGridSender struct {
	config *SendGridConfig
}

// NewSendGridSender 创建 SendGrid 邮件发送器
func NewSendGridSender(config *SendGridConfig) (*SendGridSender, error) {
	if config.APIKey == "" {
		return nil, errors.New("sendgrid api key is required")
	}
	if config.FromEmail == "" {
		return nil, errors.New("sendgrid from email is required")
	}
	if config.Host == "" {
		config.Host = DefaultSendGridHost
	}
	return &SendGridSender{config: config}, nil
}

// Send 发送 HTML 邮件
func (s *SendGridSender) Send(ctx context.Context, to, subject, html string) error {
	from := mail.NewEmail(s.config.FromName, s.config.FromEmail)
	message := mail.NewSingleEmail(from, subject, mail.NewEmail("", to), "", html)

	request := sendgrid.GetRequest(s.config.APIKey, "/v3/mail/send", s.config.Host)
	request.Method = "POST"
	request.Body = mail.GetRequestBody(message)

	resp, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// Message 已发送的邮件
type Message struct {
	To      string
	Subject string
	HTML    string
}

// MockSender 模拟发送器（用于开发/测试）
type MockSender struct {
	mu       sync.Mutex
	Messages []Message
	Err      error // 非空时 Send 返回该错误
}

// NewMockSender 创建模拟发送器
func NewMockSender() *MockSender {
	return &MockSender{}
}

// Send 记录邮件
func (s *MockSender) Send(_ context.Context, to, subject, html string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Messages = append(s.Messages, Message{To: to, Subject: subject, HTML: html})
	return nil
}

// Sent 返回已发送邮件的副本
func (s *MockSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.Messages))
	copy(out, s.Messages)
	return out
}
