package usecase

// Spoken responses. Wording is part of the product surface; tests assert on it.
const (
	msgHelp              = "You can say: enter url, set url to, submit, scan website, go to report, read scores, read findings, download report, home, back, or stop."
	msgListeningReminder = "Listening. You can say: enter url, set url to, submit, scan website, read scores, or read findings."
	msgUnsupported       = "Speech recognition is not supported in this browser."
	msgGreeting          = "Voice assistant ready. Click the microphone to give a command."
	msgContinuousOn      = "Continuous listening enabled."
	msgContinuousOff     = "Continuous listening disabled."

	msgStartScan      = "Starting the website scan."
	msgGoToReport     = "Opening the report."
	msgGoToURLEntry   = "Opening the URL entry page."
	msgURLUpdated     = "URL updated. Say submit to start the audit."
	msgURLNotFound    = "URL input not found on this page."
	msgURLFailed      = "I could not update the URL."
	msgSubmitting     = "Submitting the form to start the audit."
	msgFormNotFound   = "Form not found, redirecting to scan."
	msgSubmitFailed   = "I could not submit the form."
	msgScoresMissing  = "Scores are not visible on this page."
	msgScoresFailed   = "Sorry, I cannot read scores on this page."
	msgNoFindings     = "No findings are visible to read."
	msgFindingsFailed = "I could not read the findings."
	msgNextFinding    = "Next finding. Say read findings to hear it."
	msgPrevFinding    = "Previous finding. Say read findings to hear it."
	msgDownloading    = "Downloading the PDF report."
	msgGoingHome      = "Going to the home page."
	msgGoingBack      = "Going back."
	msgReloading      = "Reloading the page."
	msgUnknownFormat  = "You said: %s. You are on %s. Say help to learn commands."
	fallbackTitle     = "this page"
)
