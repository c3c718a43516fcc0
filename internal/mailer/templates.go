package mailer

import (
	"fmt"
	"html/template"
	"sort"
	"strings"
)

// Confirmation carries everything the booking confirmation email shows.
type Confirmation struct {
	Name        string
	Restaurant  string
	Room        string
	Date        string
	Time        string
	Guests      int
	MainCourses []string
	UpsellItems map[string]int
	UpsellTotal float64
	CancelURL   string
}

// ReviewRequest carries the fields of the post-dinner review email.
type ReviewRequest struct {
	Name       string
	Restaurant string
	ReviewURL  string
}

// courseNames maps stored course keys to their menu display names where
// the plain key would read poorly.
var courseNames = map[string]string{
	"petto_chicken":  "Petto di Pollo (Chicken Breast)",
	"quatro_formagi": "Quattro Formaggi",
	"chicken_pizza":  "Chicken Pizza",
}

func displayCourse(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	if name, ok := courseNames[k]; ok {
		return name
	}
	words := strings.Split(strings.ReplaceAll(k, "_", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<html>
  <body style="font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 20px;">
    <h1 style="text-align: center; color: #333;">Reservation Confirmation</h1>
    <div style="max-width: 600px; margin: auto; background: white; padding: 20px; border-radius: 8px;">
      <p>Hello <strong>{{.Name}}</strong>,</p>
      <p>Thank you for booking a table at <strong>Seagull Restaurants</strong>!</p>
      <hr style="margin: 20px 0;">
      <p><strong>Restaurant:</strong> {{.Restaurant}}</p>
      <p><strong>Room:</strong> {{.Room}}</p>
      <p><strong>Date:</strong> {{.Date}}</p>
      <p><strong>Time:</strong> {{.Time}}</p>
      {{.CourseSection}}
      {{.UpsellSection}}
      <p><strong>Guests:</strong> {{.Guests}}</p>
      <hr style="margin: 20px 0;">
      <p>We look forward to serving you.</p>
      <p style="margin-top: 20px;">
        If you need to cancel your reservation, click below:<br>
        <a href="{{.CancelURL}}" style="color: #d9534f;">Cancel Reservation</a>
      </p>
    </div>
  </body>
</html>`))

// Render returns the subject and HTML body of the confirmation email.
func (c Confirmation) Render() (string, string, error) {
	data := struct {
		Name, Restaurant, Room, Date, Time string
		Guests                             int
		CancelURL                          string
		CourseSection, UpsellSection       template.HTML
	}{
		Name:          c.Name,
		Restaurant:    titleCase(c.Restaurant),
		Room:          c.Room,
		Date:          c.Date,
		Time:          c.Time,
		Guests:        c.Guests,
		CancelURL:     c.CancelURL,
		CourseSection: c.courseSection(),
		UpsellSection: c.upsellSection(),
	}
	var b strings.Builder
	if err := confirmationTmpl.Execute(&b, data); err != nil {
		return "", "", err
	}
	return "Reservation Confirmation", b.String(), nil
}

func (c Confirmation) courseSection() template.HTML {
	if len(c.MainCourses) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("<p><strong>Main Course(s):</strong><ul style='margin-top: 4px; padding-left: 20px;'>")
	for i, course := range c.MainCourses {
		fmt.Fprintf(&b, "<li>Guest %d: %s</li>", i+1, template.HTMLEscapeString(displayCourse(course)))
	}
	b.WriteString("</ul></p>")
	return template.HTML(b.String())
}

func (c Confirmation) upsellSection() template.HTML {
	items := make([]string, 0, len(c.UpsellItems))
	for name, qty := range c.UpsellItems {
		if qty > 0 {
			items = append(items, fmt.Sprintf("<li>%s × %d</li>", template.HTMLEscapeString(name), qty))
		}
	}
	if len(items) == 0 {
		return ""
	}
	sort.Strings(items)
	var b strings.Builder
	b.WriteString("<p><strong>Extras:</strong><ul style='margin-top: 4px; padding-left: 20px;'>")
	for _, it := range items {
		b.WriteString(it)
	}
	b.WriteString("</ul></p>")
	if c.UpsellTotal > 0 {
		fmt.Fprintf(&b, "<p><strong>Extras Total:</strong> $%.2f</p>", c.UpsellTotal)
	}
	return template.HTML(b.String())
}

var reviewTmpl = template.Must(template.New("review").Parse(`<html>
  <body style="font-family: Arial, sans-serif; padding: 20px;">
    <div style="max-width: 640px; margin: auto; background: #ffffff; padding: 24px; border-radius: 12px;">
      <h2 style="color: #0C6DAE;">How was your dinner at {{.Restaurant}} Restaurant?</h2>
      <p>Hello {{.Name}},</p>
      <p>We'd love a quick 1-10 rating of your experience.</p>
      <p>
        <a href="{{.ReviewURL}}" style="display:inline-block; padding:12px 18px; border-radius:8px; background:#0C6DAE; color:#fff; text-decoration:none;">
          Rate your dinner
        </a>
      </p>
    </div>
  </body>
</html>`))

// Render returns the subject and HTML body of the review request email.
func (r ReviewRequest) Render() (string, string, error) {
	name := r.Name
	if name == "" {
		name = "Guest"
	}
	data := struct {
		Name, Restaurant, ReviewURL string
	}{Name: name, Restaurant: titleCase(r.Restaurant), ReviewURL: r.ReviewURL}
	var b strings.Builder
	if err := reviewTmpl.Execute(&b, data); err != nil {
		return "", "", err
	}
	subject := fmt.Sprintf("How was your dinner at %s Restaurant?", titleCase(r.Restaurant))
	return subject, b.String(), nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
