// Package notify mails the diagnosis result to the clinic that submitted it.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/yuya1213/dental-clinic-app/internal/clinicdiag"
	"github.com/yuya1213/dental-clinic-app/internal/profile"
	"github.com/yuya1213/dental-clinic-app/internal/view"
)

type Config struct {
	Host     string        `env:"HOST"`
	Port     int           `env:"PORT" envDefault:"587"`
	Username string        `env:"USERNAME"`
	Password string        `env:"PASSWORD"`
	From     string        `env:"FROM"`
	SSL      bool          `env:"SSL"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

// Enabled reports whether an SMTP host is configured.
func (c Config) Enabled() bool { return c.Host != "" }

var ErrNoRecipient = errors.New("record has no email address")

// Mailer sends result summaries over SMTP.
type Mailer struct {
	cfg     Config
	profile profile.Profile
	logger  *slog.Logger
	dial    func() (gomail.SendCloser, error)
}

func New(cfg Config, p profile.Profile, logger *slog.Logger) *Mailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.SSL
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Mailer{cfg: cfg, profile: p, logger: logger, dial: d.Dial}
}

// Send mails the result of rec to the clinic's address.
func (m *Mailer) Send(ctx context.Context, rec clinicdiag.Record) error {
	to := strings.TrimSpace(rec.ClinicInfo.Email)
	if to == "" {
		return ErrNoRecipient
	}
	msg, err := m.message(rec, to)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		s, err := m.dial()
		if err != nil {
			done <- err
			return
		}
		defer s.Close()
		done <- gomail.Send(s, msg)
	}()

	timer := time.NewTimer(m.cfg.Timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("sending result mail: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return context.DeadlineExceeded
	}
}

// Notify sends in the background and logs the outcome. The caller's
// cancellation does not abort the send.
func (m *Mailer) Notify(ctx context.Context, rec clinicdiag.Record) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		if err := m.Send(ctx, rec); err != nil {
			m.logger.Error("result mail failed", "record_id", rec.ID, "error", err)
			return
		}
		m.logger.Info("result mail sent", "record_id", rec.ID)
	}()
}

func (m *Mailer) message(rec clinicdiag.Record, to string) (*gomail.Message, error) {
	from := m.cfg.From
	if from == "" {
		from = m.profile.Email
	}
	if from == "" {
		return nil, errors.New("no sender address configured")
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", from, m.profile.Name)
	msg.SetAddressHeader("To", to, rec.ClinicInfo.RespondentName)
	msg.SetHeader("Subject", "【歯科医院経営診断】診断結果のお知らせ - "+rec.ClinicInfo.ClinicName)
	msg.SetBody("text/plain", TextBody(rec, m.profile))

	html, err := view.Build(rec, m.profile).HTML()
	if err != nil {
		return nil, fmt.Errorf("rendering mail body: %w", err)
	}
	msg.AddAlternative("text/html", string(html))
	return msg, nil
}

// TextBody is the plain-text summary of a result.
func TextBody(rec clinicdiag.Record, p profile.Profile) string {
	res := rec.Results
	headline, _ := clinicdiag.Summary(res.Status)

	var b strings.Builder
	fmt.Fprintf(&b, "%s 様\n\n", rec.ClinicInfo.RespondentName)
	fmt.Fprintf(&b, "%s の経営診断結果をお知らせします。\n\n", rec.ClinicInfo.ClinicName)
	fmt.Fprintf(&b, "診断日: %s\n", rec.ClinicInfo.Date.Japanese())
	fmt.Fprintf(&b, "総合評価: %s\n", res.Status)
	fmt.Fprintf(&b, "全%d問中 %d問 が「はい」\n", clinicdiag.QuestionCount, res.TotalYes)
	fmt.Fprintf(&b, "%s\n\n", headline.JA)

	b.WriteString("■ カテゴリ別スコア\n")
	for _, c := range clinicdiag.Categories {
		score := res.Categories.Of(c)
		fmt.Fprintf(&b, "・%s: %d/%d (%s)\n", c.Label().JA, score, clinicdiag.MaxCategoryScore, clinicdiag.Evaluate(score))
	}

	b.WriteString("\n■ 改善提案\n")
	for _, a := range clinicdiag.SelectAdvice(res) {
		fmt.Fprintf(&b, "%s\n", a.Text.JA)
	}

	if lines := p.Lines(); len(lines) > 0 {
		b.WriteString("\n--\n")
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteByte('\n')
	}
	return b.String()
}
