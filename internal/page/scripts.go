package page

// Page-side queries. Each is a function literal evaluated by rod with the
// listed arguments.

// loadIDScript(candidate) tags the current document once and returns its tag.
const loadIDScript = `(candidate) => {
	if (!window.__voicepilotLoadID) {
		window.__voicepilotLoadID = candidate;
	}
	return window.__voicepilotLoadID;
}`

// scoreScript(label, cardSelector, valueSelector) returns the score text or null.
const scoreScript = `(label, cardSelector, valueSelector) => {
	const labelEl = Array.from(document.querySelectorAll('*'))
		.find(n => n.textContent && n.textContent.trim().toLowerCase() === label);
	if (!labelEl) return null;
	const card = labelEl.closest(cardSelector);
	const value = card ? card.querySelector(valueSelector) : null;
	return value ? value.textContent.trim() : null;
}`

// findingsScript(selectors) returns [{heading, items: [{title, description, steps}]}].
const findingsScript = `(s) => {
	const text = (root, selector) => {
		const el = root.querySelector(selector);
		return el && el.textContent ? el.textContent.trim() : '';
	};
	return Array.from(document.querySelectorAll(s.section)).map(section => ({
		heading: text(section, s.heading),
		items: Array.from(section.querySelectorAll(s.item)).map(item => ({
			title: text(item, s.title),
			description: text(item, s.description),
			steps: Array.from(item.querySelectorAll(s.step)).map(li => li.textContent.trim()),
		})),
	}));
}`

// submitScript runs with this bound to the form element.
const submitScript = `() => this.submit()`
