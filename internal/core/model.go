package core

import (
	"fmt"
	"strings"
	"time"
)

// Weekday is a day of week serialized as a three letter name (Mon..Sun)
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekdayNames = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// WeekdayOf converts a time.Weekday
func WeekdayOf(d time.Weekday) Weekday {
	return Weekday(d)
}

func (d Weekday) String() string {
	if d < Sunday || d > Saturday {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayNames[d]
}

// MarshalText implements encoding.TextMarshaler
func (d Weekday) MarshalText() ([]byte, error) {
	if d < Sunday || d > Saturday {
		return nil, fmt.Errorf("invalid weekday %d", int(d))
	}
	return []byte(weekdayNames[d]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Weekday) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	for i, name := range weekdayNames {
		if strings.EqualFold(s, name) {
			*d = Weekday(i)
			return nil
		}
	}
	return fmt.Errorf("invalid weekday %q", s)
}

// EmailRecord is one historical entry for a sender
type EmailRecord struct {
	Date            time.Time `json:"date"`
	Subject         string    `json:"subject"`
	RecipientsCount int       `json:"recipientsCount"`
	ContentHash     string    `json:"contentHash"`
	HourOfDay       int       `json:"hourOfDay"`
	DayOfWeek       Weekday   `json:"dayOfWeek"`
}

// EmailMetadata holds the envelope fields extracted by the parser
type EmailMetadata struct {
	Subject string   `json:"subject"`
	From    string   `json:"from"`
	To      []string `json:"to"`
	Date    string   `json:"date"`
}

// Attachment describes one attachment of a parsed email
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// ParsedEmail is the pre-parsed email supplied by the external parser
type ParsedEmail struct {
	Headers     map[string][]string `json:"headers,omitempty"`
	PlainText   string              `json:"plainText"`
	HTMLText    string              `json:"htmlText"`
	Attachments []Attachment        `json:"attachments,omitempty"`
	Metadata    EmailMetadata       `json:"metadata"`
}

// Content returns the body used for similarity fingerprints
func (e *ParsedEmail) Content() string {
	if strings.TrimSpace(e.PlainText) != "" {
		return e.PlainText
	}
	return e.HTMLText
}

// AuthResult is an SPF, DKIM or DMARC verdict
type AuthResult string

const (
	AuthPass    AuthResult = "pass"
	AuthFail    AuthResult = "fail"
	AuthNone    AuthResult = "none"
	AuthUnknown AuthResult = ""
)

// IsFail reports whether the verdict is a failure
func (r AuthResult) IsFail() bool {
	return strings.EqualFold(strings.TrimSpace(string(r)), string(AuthFail))
}

// TechnicalMetrics is the flat record produced by the technical analysis component
type TechnicalMetrics struct {
	LinkRatio        float64    `json:"linkRatio"`
	LinkCount        int        `json:"linkCount"`
	DomainCount      int        `json:"domainCount"`
	HasTrackingPixel bool       `json:"hasTrackingPixel"`
	ReplyToMismatch  bool       `json:"replyToMismatch"`
	HTMLOnly         bool       `json:"htmlOnly"`
	HasAttachments   bool       `json:"hasAttachments"`
	SPF              AuthResult `json:"spf"`
	DKIM             AuthResult `json:"dkim"`
	DMARC            AuthResult `json:"dmarc"`
}

// Prediction is the label returned by the text classifier
type Prediction string

const (
	PredictionSpam Prediction = "spam"
	PredictionHam  Prediction = "ham"
)

// IsSpam reports whether the classifier voted spam
func (p Prediction) IsSpam() bool {
	return strings.EqualFold(strings.TrimSpace(string(p)), string(PredictionSpam))
}

// NLPMetrics is the flat record produced by the NLP component
type NLPMetrics struct {
	SpamWordRatio    float64    `json:"spamWordRatio"`
	NumSpammyWords   int        `json:"numSpammyWords"`
	AllCapsCount     int        `json:"allCapsCount"`
	ExclamationCount int        `json:"exclamationCount"`
	Prediction       Prediction `json:"prediction"`
}

// BehaviorSignals are optional urgency and social engineering sub-scores in [0,1].
// Both must be set for them to be used.
type BehaviorSignals struct {
	Urgency           *float64 `json:"urgency,omitempty"`
	SocialEngineering *float64 `json:"socialEngineering,omitempty"`
}

// AnalysisRequest is one email to score together with its external metrics
type AnalysisRequest struct {
	Email     ParsedEmail      `json:"email"`
	Technical TechnicalMetrics `json:"technical"`
	NLP       NLPMetrics       `json:"nlp"`
	Signals   *BehaviorSignals `json:"signals,omitempty"`
}

// BehavioralResult holds the anomaly and reputation metrics of one email against its sender history
type BehavioralResult struct {
	From                  string    `json:"from"`
	IsNewSender           bool      `json:"isNewSender"`
	EmailCountLast24h     int       `json:"emailCountLast24h"`
	EmailCountLast7d      int       `json:"emailCountLast7d"`
	BurstRatio            float64   `json:"burstRatio"`
	AvgRecipients         float64   `json:"avgRecipients"`
	HourOfDay             int       `json:"hourOfDay"`
	DayOfWeek             Weekday   `json:"dayOfWeek"`
	ContentSimilarityRate float64   `json:"contentSimilarityRate"`
	SubjectChangeRate     float64   `json:"subjectChangeRate"`
	ReputationScore       float64   `json:"reputationScore"`
	FirstSeenDate         time.Time `json:"firstSeenDate"`
	TimeAnomalyScore      float64   `json:"timeAnomalyScore"`
	MassMailingIndicator  bool      `json:"massMailingIndicator"`
}

// RiskLevel is the categorical risk tier
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// TechnicalDetails is the technical part of the result details
type TechnicalDetails struct {
	Score   float64          `json:"score"`
	Rules   []string         `json:"rules"`
	Metrics TechnicalMetrics `json:"metrics"`
}

// NLPDetails is the NLP part of the result details
type NLPDetails struct {
	Score      float64    `json:"score"`
	Rules      []string   `json:"rules"`
	Prediction Prediction `json:"prediction"`
	Metrics    NLPMetrics `json:"metrics"`
}

// BehaviorDetails is the behavioral part of the result details
type BehaviorDetails struct {
	Score  float64           `json:"score"`
	Source string            `json:"source"`
	Result *BehavioralResult `json:"result,omitempty"`
}

// AnalysisDetails groups the per-stream details
type AnalysisDetails struct {
	Technical TechnicalDetails `json:"technical"`
	Behavior  BehaviorDetails  `json:"behavior"`
	NLP       NLPDetails       `json:"nlp"`
}

// SpamAnalysisResult represents the result of spam analysis
type SpamAnalysisResult struct {
	OverallScore    float64         `json:"overallScore"`
	RiskLevel       RiskLevel       `json:"riskLevel"`
	IsSpam          bool            `json:"isSpam"`
	FinalScore      float64         `json:"finalScore"`
	Summary         string          `json:"summary"`
	Details         AnalysisDetails `json:"details"`
	Recommendations []string        `json:"recommendations"`
	AnalyzedAt      time.Time       `json:"analyzedAt"`
	ProcessingID    string          `json:"processingId"`
}
