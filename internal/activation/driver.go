package activation

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// PageDriver sets an agent's password on a single activation page.
type PageDriver interface {
	Activate(ctx context.Context, url, password string) error
	Close() error
}

// successIndicators are fragments whose presence in the post-submit page
// text (or a /dashboard redirect) confirms the activation took.
var successIndicators = []string{"success", "activated", "thank you", "welcome", "dashboard"}

// ChromeDriver drives activation pages with a headless Chrome instance.
// One browser process is shared across records; each Activate call runs
// in a fresh tab bounded by recordTimeout.
type ChromeDriver struct {
	recordTimeout time.Duration

	allocCtx  context.Context
	allocStop context.CancelFunc
}

// NewChromeDriver starts a headless browser allocator. recordTimeout
// bounds each individual activation; zero means one minute.
func NewChromeDriver(recordTimeout time.Duration) *ChromeDriver {
	if recordTimeout <= 0 {
		recordTimeout = time.Minute
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("incognito", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1920, 1080),
	)
	allocCtx, stop := chromedp.NewExecAllocator(context.Background(), opts...)
	return &ChromeDriver{
		recordTimeout: recordTimeout,
		allocCtx:      allocCtx,
		allocStop:     stop,
	}
}

// Close shuts the browser down.
func (d *ChromeDriver) Close() error {
	d.allocStop()
	return nil
}

// Activate opens the activation URL, fills the set-password form, submits
// it, and verifies the page confirms the activation. Every failure is a
// *BrowserError tagged with the step that broke.
func (d *ChromeDriver) Activate(ctx context.Context, url, password string) error {
	ctx, cancel := context.WithTimeout(ctx, d.recordTimeout)
	defer cancel()
	tab, cancelTab := chromedp.NewContext(d.allocCtx)
	defer cancelTab()

	// Tie the tab to the per-record deadline.
	go func() {
		<-ctx.Done()
		cancelTab()
	}()

	if err := chromedp.Run(tab,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	); err != nil {
		return &BrowserError{Step: "navigate", URL: url, Err: err}
	}

	var filled bool
	if err := chromedp.Run(tab,
		chromedp.Evaluate(setPasswordScript(password), &filled),
	); err != nil {
		return &BrowserError{Step: "form", URL: url, Err: err}
	}
	if !filled {
		return &BrowserError{Step: "form", URL: url, Detail: "password field not found"}
	}

	var clicked bool
	if err := chromedp.Run(tab,
		chromedp.Evaluate(clickSubmitScript, &clicked),
	); err != nil {
		return &BrowserError{Step: "submit", URL: url, Err: err}
	}
	if !clicked {
		return &BrowserError{Step: "submit", URL: url, Detail: "submit button not found"}
	}

	// Give the form post and redirect a moment to land.
	var outcome pageOutcome
	if err := chromedp.Run(tab,
		chromedp.Sleep(3*time.Second),
		chromedp.Evaluate(outcomeScript, &outcome),
	); err != nil {
		return &BrowserError{Step: "verify", URL: url, Err: err}
	}

	text := strings.ToLower(outcome.Text)
	for _, ind := range successIndicators {
		if strings.Contains(text, ind) {
			return nil
		}
	}
	if strings.Contains(strings.ToLower(outcome.Location), "dashboard") {
		return nil
	}

	detail := strings.TrimSpace(outcome.Error)
	if detail == "" {
		detail = "no success confirmation found"
	}
	return &BrowserError{Step: "verify", URL: url, Detail: detail}
}

type pageOutcome struct {
	Text     string `json:"text"`
	Location string `json:"location"`
	Error    string `json:"error"`
}

// setPasswordScript finds the set-password input the way the page
// actually renders it (name new_password1, class set-password-input, or
// any password-typed input) and fills it.
func setPasswordScript(password string) string {
	return `(function() {
	var inputs = document.getElementsByTagName('input');
	for (var i = 0; i < inputs.length; i++) {
		var input = inputs[i];
		if (input.type === 'password' ||
			(input.name && input.name.toLowerCase().indexOf('password') !== -1) ||
			(input.id && input.id.toLowerCase().indexOf('password') !== -1) ||
			(input.className && input.className.toLowerCase().indexOf('password') !== -1)) {
			input.value = ` + strconv.Quote(password) + `;
			input.dispatchEvent(new Event('input', {bubbles: true}));
			return true;
		}
	}
	return false;
})()`
}

const clickSubmitScript = `(function() {
	var submits = document.querySelectorAll('input[type="submit"], input[value="Done"], #agent-sign-up-button');
	if (submits.length > 0) { submits[0].click(); return true; }
	var buttons = document.getElementsByTagName('button');
	for (var i = 0; i < buttons.length; i++) {
		var t = buttons[i].textContent.toLowerCase();
		if (buttons[i].type === 'submit' || t.indexOf('done') !== -1 ||
			t.indexOf('submit') !== -1 || t.indexOf('activate') !== -1) {
			buttons[i].click();
			return true;
		}
	}
	return false;
})()`

const outcomeScript = `(function() {
	var err = '';
	var sels = ['.set-password-error', '.error', '.alert', '.message'];
	for (var i = 0; i < sels.length; i++) {
		var el = document.querySelector(sels[i]);
		if (el && el.textContent.trim()) { err = el.textContent.trim(); break; }
	}
	return {
		text: document.body ? document.body.innerText : '',
		location: window.location.href,
		error: err
	};
})()`
