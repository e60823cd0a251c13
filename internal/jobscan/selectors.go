package jobscan

import (
	"fmt"

	"github.com/jonathan/resume-scanner/internal/browser"
)

const jobTitleMatchFinding = "Job Title Match"

// DOM contract of the scoring site. Everything the scanner reads or clicks is listed here.
var (
	resultTitle     = browser.ByText("div", "Resume scan results")
	scoreValue      = browser.ID("div", "score").Find(classed("span", "number"))
	uploadAndRescan = browser.ID("button", "upload-and-scan")
	rescanModal     = browser.Class("div", "modalCard")

	infoModal        = browser.XPath(`//div[@role='dialog'][.//h3[normalize-space(.)='Jobscan Report']]`)
	infoModalDismiss = infoModal.Find("button[normalize-space(.)='Dismiss']")

	evidenceModal      = browser.ID("div", "modal")
	evidenceModalClose = evidenceModal.Find("div[@data-test='dismissableCloseIcon']")

	correctionModal        = browser.XPath(`//div[contains(@class, 'modal')]`)
	correctionModalHeading = correctionModal.Find("*[self::h1 or self::h2 or self::h3 or self::h4]").First()
	updateDetailsButton    = browser.ByText("button", "Update Details")

	companyInput  = byLabel("Which company are you applying to?")
	jobTitleInput = byLabel("What job title are you applying for?")
	jobURLInput   = byLabel("What is the url of the job listing?")
)

// Paths evaluated under a finding, check row, skill table or scan form.
var (
	findingTitlePath   = classed("div", "title")
	checkRowPath       = classed("div", "checkRow")
	checkIconPath      = classed("div", "checkIcon")
	checkDescPath      = classed("div", "description")
	evidencePath       = classed("div", "evidence")
	updatePath         = classed("div", "additional") + "//span[contains(normalize-space(.), 'Update')]"
	showMorePath       = "button[normalize-space(.)='Show more']"
	skillNamePath      = classed("span", "name")
	skillCountPath     = classed("span", "count")
	skillRequiredPath  = "parent::div/following-sibling::div[1]"
	missingGlyphPath   = classed("span", "x")
	resumeTextAreaPath = "textarea[@placeholder='Paste resume text...']"
	dropTargetPath     = classed("div", "resumeActions") + "/*[self::label or self::button][" + browser.HasClass("upload") + "]"
	jobDescriptionPath = "textarea[@id='jobDescriptionInput']"
	scanButtonPath     = "button[normalize-space(.)='Scan']"
	loadingOverlayPath = classed("*", "loadingOverlay")
)

func classed(tag, class string) string {
	return tag + "[" + browser.HasClass(class) + "]"
}

// sectionAnchor is the element carrying a report section's id.
func sectionAnchor(id string) browser.Locator {
	return browser.ID("div", id)
}

// sectionFindings addresses the findings listed in the block following a section anchor.
func sectionFindings(id string) browser.Locator {
	return sectionAnchor(id).Find("following-sibling::div[1][" + browser.HasClass("findingSection") + "]//" + classed("div", "finding"))
}

// skillsContainer addresses the skill table following a section anchor.
func skillsContainer(id string) browser.Locator {
	return sectionAnchor(id).Find("following-sibling::div[1][" + browser.HasClass("skillsAnalyzer") + "]")
}

// matchRateIssues addresses the issue count next to a section's label in the match-rate bar.
func matchRateIssues(label string) browser.Locator {
	return browser.XPath(fmt.Sprintf("//%s//span[normalize-space(.)=%s]/following-sibling::span[1]",
		classed("div", "match-rate-bar"), browser.Quote(label)))
}

// byLabel addresses the form control a label describes: nested inside it, or
// the first one after it.
func byLabel(text string) browser.Locator {
	label := fmt.Sprintf("//label[normalize-space(.)=%s]", browser.Quote(text))
	field := "*[self::input or self::textarea]"
	return browser.XPath(fmt.Sprintf("(%s//%s | %s/following::%s)[1]", label, field, label, field))
}
