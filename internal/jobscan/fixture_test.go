package jobscan

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/jonathan/resume-scanner/internal/browser"
	"github.com/jonathan/resume-scanner/internal/browser/browsertest"
	"github.com/jonathan/resume-scanner/internal/interaction"
	"github.com/jonathan/resume-scanner/internal/types"
)

const (
	homeURL   = "https://app.example.com/dashboard"
	reportURL = "https://app.example.com/match-report/1001"
	rescanURL = "https://app.example.com/match-report/1002"
)

var scannedAt = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

func testJob() types.JobTarget {
	return types.JobTarget{
		URL:                "https://jobs.example.com/123",
		Title:              "Senior Go Engineer",
		Company:            "Acme",
		DescriptionDetails: []string{"Build services in Go.", "Operate Kubernetes clusters."},
	}
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.HomeURL = homeURL
	opts.ResultURL = regexp.MustCompile(`^https://app\.example\.com/match-report/\d+`)
	opts.HardWhitelist = []string{"docker"}
	opts.ScorePollInterval = time.Millisecond
	opts.StabilityTimeout = time.Second
	opts.ResultTimeout = time.Second
	opts.InfoModalTimeout = 0
	opts.NavigationPause = 0
	opts.Now = func() time.Time { return scannedAt }
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return opts
}

func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func newDriver(page browser.Page) *interaction.Driver {
	return interaction.New(page,
		interaction.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		interaction.WithSeed(7),
		interaction.WithRetry(2, 0),
		interaction.WithProbeTimeout(0),
		interaction.WithSleep(noSleep),
	)
}

const dashboardHTML = `<html><body>
<div id="scanUploader">
	<textarea placeholder="Paste resume text..."></textarea>
	<div class="resumeActions"><label class="upload">Upload</label></div>
	<textarea id="jobDescriptionInput"></textarea>
	<button disabled>Scan</button>
	<div class="loadingOverlay" hidden></div>
</div>
</body></html>`

const rescanModalHTML = `<div class="modalCard">
	<textarea placeholder="Paste resume text..."></textarea>
	<div class="resumeActions"><button class="upload">Upload</button></div>
	<textarea id="jobDescriptionInput"></textarea>
	<button><span>Scan</span></button>
	<div class="loadingOverlay" hidden></div>
</div>`

// reportParams varies the rendered report.
type reportParams struct {
	Score         int
	TitleStatus   string
	RecordedTitle string
	ModalHeading  string
	ContactStatus string
	InfoModal     bool
	SearchIssues  int
}

func defaultReport() reportParams {
	return reportParams{
		Score:         82,
		TitleStatus:   "fail",
		RecordedTitle: "Engineer",
		ModalHeading:  "Job Opportunity",
		ContactStatus: "warn",
		InfoModal:     true,
		SearchIssues:  1,
	}
}

func (p reportParams) html() string {
	info := ""
	if p.InfoModal {
		info = `<div role="dialog"><h3>Jobscan Report</h3><p>Here is your report.</p><button>Dismiss</button></div>`
	}
	return fmt.Sprintf(`<html><body>
<div>Resume scan results</div>
<div id="score"><span class="number">%d</span></div>
<button id="upload-and-scan">Upload &amp; rescan</button>
<div class="match-rate-bar">
	<div><span>Searchability</span><span>%d issues to fix</span></div>
	<div><span>Hard skills</span><span>1 issue to fix</span></div>
	<div><span>Recruiter tips</span><span>0 issues</span></div>
</div>
%s
<div id="searchability"><h3>Searchability
<span>issues to fix</span></h3></div>
<div class="findingSection">
	<div class="finding">
		<div class="title">Job Title Match</div>
		<div class="checkRow">
			<div class="checkIcon icon %s"></div>
			<div class="description">The job title was not found in your resume.</div>
			<div class="additional"><span>Update</span></div>
		</div>
	</div>
	<div class="finding">
		<div class="title">Contact Information</div>
		<div class="checkRow">
			<div class="checkIcon icon pass"></div>
			<div class="description">You provided your email.</div>
			<div class="evidence">View</div>
		</div>
		<div class="checkRow">
			<div class="checkIcon icon %s"></div>
			<div class="description">We did not find a phone number.</div>
		</div>
	</div>
</div>
<div id="hardSkills"><h3>Hard skills</h3></div>
<div class="skillsAnalyzer">
	<div class="row"><span class="name">Go</span><div><span class="count">3</span></div><div>3 times</div></div>
	<div class="row"><span class="name">Docker</span><div><span class="count"><span class="x"></span></span></div><div>2 times</div></div>
	<button>Show more</button>
</div>
<div id="softSkills"><h3>Soft skills</h3></div>
<div class="skillsAnalyzer">
	<div class="row"><span class="name">Teamwork</span><div><span class="count">0</span></div><div>1 time</div></div>
</div>
<div id="recruiterTips"><h3>Recruiter tips</h3></div>
<div class="findingSection">
	<div class="finding">
		<div class="title">Word Count</div>
		<div class="checkRow"><div class="checkIcon icon pass"></div><div class="description">Your resume has a good length.</div></div>
	</div>
</div>
<div id="formatting"><h3>Formatting</h3></div>
<div class="findingSection"></div>
<div id="modal" hidden>
	<p>Email found</p>
	<p>  jane@example.com  </p>
	<div data-test="dismissableCloseIcon"></div>
</div>
<div class="modal correction" hidden>
	<h2>%s</h2>
	%s
	<button>Update Details</button>
</div>
</body></html>`, p.Score, p.SearchIssues, info, p.TitleStatus, p.ContactStatus, p.ModalHeading, correctionFormHTML(p.RecordedTitle))
}

// correctionFormHTML is the job details form inside the correction modal.
func correctionFormHTML(recordedTitle string) string {
	return fmt.Sprintf(`<label>Which company are you applying to?<input value="Acme"></label>
	<label for="title">What job title are you applying for?</label><input id="title" value="%s">
	<label>What is the url of the job listing?<input value=""></label>`, recordedTitle)
}

var (
	body             = browser.XPath("//body")
	scanButtons      = browser.XPath("//button[normalize-space(.)='Scan']")
	overlays         = browser.Class("div", "loadingOverlay")
	jobDescription   = browser.ID("textarea", "jobDescriptionInput")
	hardShowMore     = skillsContainer("hardSkills").Find(showMorePath)
	updateSpans      = browser.XPath("//div[contains(@class, 'additional')]//span")
	evidenceButtons  = browser.Class("div", "evidence")
	correctionDialog = browser.Class("div", "correction")
	titleMatchIcon   = browser.XPath("//div[div[@class='title']='Job Title Match']//div[contains(@class, 'checkIcon')]")
	infoModalDialog  = browser.XPath("//div[@role='dialog']")
)

// site wires a fake page that behaves like the scoring site: the dashboard
// form, the report with its modals, and the rescan modal.
type site struct {
	page    *browsertest.Page
	reports []reportParams
	shown   int
	armed   bool
	reads   int
}

func newSite(t *testing.T, reports ...reportParams) *site {
	t.Helper()
	s := &site{page: browsertest.New("about:blank", "<html></html>"), reports: reports}
	p := s.page
	p.Route(homeURL, dashboardHTML)

	// the scan button enables once a job description is present
	p.BeforeRead(func(p *browsertest.Page) error {
		if v, ok := p.FilledValue(jobDescription); ok && v != "" {
			_ = p.RemoveAttr(scanButtons, "disabled")
		}
		return nil
	})

	// a submitted scan shows the overlay, then lands on the next report
	p.OnClick(scanButtons, func(p *browsertest.Page) error {
		s.armed = true
		s.reads = 0
		return p.RemoveAttr(overlays, "hidden")
	})
	p.BeforeRead(func(p *browsertest.Page) error {
		if !s.armed {
			return nil
		}
		s.reads++
		if s.reads < 2 {
			return nil
		}
		s.armed = false
		s.showNext()
		return nil
	})

	p.OnClick(uploadAndRescan, func(p *browsertest.Page) error {
		return p.Append(body, rescanModalHTML)
	})
	p.OnClick(infoModalDismiss, func(p *browsertest.Page) error {
		return p.Remove(infoModalDialog)
	})
	p.OnClick(hardShowMore, func(p *browsertest.Page) error {
		if err := p.Append(skillsContainer("hardSkills"),
			`<div class="row"><span class="name">Kubernetes</span><div><span class="count">1</span></div><div>2 times</div></div>`); err != nil {
			return err
		}
		return p.Remove(hardShowMore)
	})
	p.OnClick(evidenceButtons, func(p *browsertest.Page) error {
		return p.RemoveAttr(evidenceModal, "hidden")
	})
	p.OnClick(evidenceModalClose, func(p *browsertest.Page) error {
		return p.SetAttr(evidenceModal, "hidden", "")
	})
	p.OnClick(updateSpans, func(p *browsertest.Page) error {
		return p.RemoveAttr(correctionDialog, "hidden")
	})
	p.OnKey("Escape", func(p *browsertest.Page) error {
		return p.SetAttr(correctionDialog, "hidden", "")
	})
	p.OnClick(updateDetailsButton, func(p *browsertest.Page) error {
		if v, ok := p.FilledValue(jobTitleInput); ok && v == testJob().Title {
			if err := p.SetAttr(titleMatchIcon, "class", "checkIcon icon pass"); err != nil {
				return err
			}
		}
		return p.SetAttr(correctionDialog, "hidden", "")
	})
	return s
}

// showNext renders the next queued report at a fresh URL.
func (s *site) showNext() {
	url := reportURL
	if s.shown > 0 {
		url = rescanURL
	}
	params := s.reports[min(s.shown, len(s.reports)-1)]
	s.shown++
	s.page.Show(url, params.html())
}

// showReport puts a report on screen without going through a scan.
func (s *site) showReport(params reportParams) {
	s.page.Show(reportURL, params.html())
}
