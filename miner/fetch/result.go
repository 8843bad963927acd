package fetch

// ResultKind discriminates the outcome of a fetch. This replaces sentinel
// return values: callers switch on the kind instead of probing for nil.
type ResultKind int

const (
	// ResultHTML means the body holds a usable HTML document.
	ResultHTML ResultKind = iota
	// ResultSkip means the URL is not worth processing (404, PDF, non-HTML).
	ResultSkip
	// ResultBlockedDomain means the domain is blocked for this process.
	ResultBlockedDomain
	// ResultCaptcha means a CAPTCHA interstitial was detected.
	ResultCaptcha
)

func (k ResultKind) String() string {
	switch k {
	case ResultHTML:
		return "html"
	case ResultSkip:
		return "skip"
	case ResultBlockedDomain:
		return "blocked"
	case ResultCaptcha:
		return "captcha"
	}
	return "unknown"
}

// Result is the outcome of one fetch attempt cycle.
type Result struct {
	Kind     ResultKind
	Body     string
	FinalURL string
	Reason   string
}

func htmlResult(body, finalURL string) Result {
	return Result{Kind: ResultHTML, Body: body, FinalURL: finalURL}
}

func skip(reason string) Result {
	return Result{Kind: ResultSkip, Reason: reason}
}

func blocked(reason string) Result {
	return Result{Kind: ResultBlockedDomain, Reason: reason}
}

func captcha(reason string) Result {
	return Result{Kind: ResultCaptcha, Reason: reason}
}
