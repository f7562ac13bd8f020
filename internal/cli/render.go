package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/joeshaw/aveiro-bus/internal/directions"
	"github.com/joeshaw/aveiro-bus/internal/maps"
	"github.com/joeshaw/aveiro-bus/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	faintStyle = lipgloss.NewStyle().Faint(true)
	stepStyle  = lipgloss.NewStyle().PaddingLeft(2)
)

func kindStyle(kind directions.StepKind) lipgloss.Style {
	c := kind.Colors()
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(c.Foreground)).
		Background(lipgloss.Color(c.Background)).
		Bold(true).
		Padding(0, 1)
}

// lineBadge draws a line name in the line's own colors.
func lineBadge(name, color, textColor string) string {
	style := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	if color != "" {
		style = style.Background(lipgloss.Color("#" + strings.TrimPrefix(color, "#")))
	}
	if textColor != "" {
		style = style.Foreground(lipgloss.Color("#" + strings.TrimPrefix(textColor, "#")))
	}
	return style.Render(name)
}

func kindLabel(kind directions.StepKind) string {
	switch kind {
	case directions.StepWalking:
		return "walk"
	case directions.StepBus:
		return "bus"
	default:
		return "transfer"
	}
}

func renderItinerary(n int, it directions.Itinerary) string {
	var b strings.Builder

	header := fmt.Sprintf("%d. %s → %s", n+1, it.StartAddress, it.EndAddress)
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n")

	var facts []string
	if it.Duration.Text != "" {
		facts = append(facts, it.Duration.Text)
	}
	if it.Distance.Text != "" {
		facts = append(facts, it.Distance.Text)
	}
	if times := timeRange(it.DepartureTime, it.ArrivalTime); times != "" {
		facts = append(facts, times)
	}
	if it.Fare != "" {
		facts = append(facts, it.Fare)
	}
	if it.WheelchairAccessible {
		facts = append(facts, "♿")
	}
	if len(facts) > 0 {
		b.WriteString(faintStyle.Render(strings.Join(facts, " · ")))
		b.WriteString("\n")
	}

	for _, step := range it.Steps {
		b.WriteString(stepStyle.Render(renderStep(step)))
		b.WriteString("\n")
	}
	for _, w := range it.Warnings {
		b.WriteString(faintStyle.Render("! " + w))
		b.WriteString("\n")
	}
	return b.String()
}

func renderStep(step directions.StepView) string {
	line := kindStyle(step.Kind).Render(kindLabel(step.Kind)) + " " + step.Instructions
	if step.Duration.Text != "" {
		line += faintStyle.Render(" (" + step.Duration.Text + ")")
	}

	if t := step.Transit; t != nil {
		ride := fmt.Sprintf("%s %s → %s, %d stops",
			lineBadge(t.Line, t.Color, t.TextColor), t.DepartureStop, t.ArrivalStop, t.NumStops)
		if t.DepartureTime.Text != "" {
			ride += faintStyle.Render(" at " + t.DepartureTime.Text)
		}
		line += "\n   " + ride
	}
	return line
}

func timeRange(from, to *maps.TimeData) string {
	if from == nil || to == nil || from.Text == "" || to.Text == "" {
		return ""
	}
	return from.Text + "–" + to.Text
}

func renderPrediction(p maps.PlacePrediction) string {
	title := p.StructuredFormatting.MainText
	if title == "" {
		title = p.Description
	}
	out := titleStyle.Render(title)
	if secondary := p.StructuredFormatting.SecondaryText; secondary != "" {
		out += " " + faintStyle.Render(secondary)
	}
	return out
}

func renderRoute(route *models.Route, stops int) string {
	name := route.ShortName
	if name == "" {
		name = route.ID
	}
	out := lineBadge(name, route.Color, route.TextColor) + " " + route.LongName
	if len(route.DirectionDestinations) > 0 {
		var dests []string
		for _, d := range route.DirectionDestinations {
			if d != "" {
				dests = append(dests, d)
			}
		}
		if len(dests) > 0 {
			out += faintStyle.Render(" ⇄ " + strings.Join(dests, " / "))
		}
	}
	return out + faintStyle.Render(fmt.Sprintf(" (%d stops)", stops))
}
