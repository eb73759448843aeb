package main

import (
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/noah-isme/campus-api/internal/models"
)

func verdict(ok bool) string {
	if ok {
		return color.GreenString("OK")
	}
	return color.RedString("BLOCKED")
}

func missingNames(refs []models.SubjectRef) string {
	if len(refs) == 0 {
		return "-"
	}
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, ref.Name)
	}
	return strings.Join(names, ", ")
}

func renderReport(w io.Writer, subjectID string, report *models.PrerequisiteReport) {
	color.New(color.FgYellow).Fprintf(w, "\nPrerequisites for %s\n", subjectID)
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Stage", "Result", "Missing"})
	table.Append([]string{"Coursework", verdict(report.Cursada.Satisfied), missingNames(report.Cursada.Missing)})
	table.Append([]string{"Final", verdict(report.Final.Satisfied), missingNames(report.Final.Missing)})
	table.Render()
	if report.Passed {
		color.New(color.FgGreen).Fprintln(w, "Subject already passed.")
	}
}

func renderAgenda(w io.Writer, days []models.DayAgenda) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Date", "Day", "Start", "End", "Subject", "Commission", "Room"})
	table.SetAutoMergeCells(true)
	for _, day := range days {
		if len(day.Blocks) == 0 {
			table.Append([]string{day.Date, string(day.Weekday), "", "", "", "", ""})
			continue
		}
		for _, block := range day.Blocks {
			subject := block.SubjectName
			if block.IsInstructor {
				subject = color.CyanString(subject + " (teaching)")
			}
			commission := ""
			if block.CommissionName != nil {
				commission = *block.CommissionName
			}
			table.Append([]string{day.Date, string(day.Weekday), block.Start, block.End, subject, commission, block.Room})
		}
	}
	table.Render()
}
