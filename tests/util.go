package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/task"
	"github.com/trezcool/darasa/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Role:      role,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateTask(
	t *testing.T,
	repo task.Repository,
	title, studentID, createdBy, status string,
	dueDate core.Date,
) task.Task {
	now := time.Now().UTC()
	tsk := task.Task{
		Title:       title,
		Description: null.String{},
		DueDate:     dueDate,
		Status:      status,
		Priority:    task.PriorityMedium,
		StudentID:   studentID,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	tsk, err := repo.CreateTask(context.Background(), tsk)
	if err != nil {
		t.Fatalf("CreateTask() failed: %v", err)
	}
	return tsk
}

func MarkAttendance(
	t *testing.T,
	repo attendance.Repository,
	studentID, markedBy, status string,
	date core.Date,
) attendance.Attendance {
	att := attendance.Attendance{
		Date:      date,
		Status:    status,
		StudentID: studentID,
		MarkedBy:  markedBy,
		MarkedAt:  time.Now().UTC(),
	}
	att, err := repo.CreateAttendance(context.Background(), att)
	if err != nil {
		t.Fatalf("MarkAttendance() failed: %v", err)
	}
	return att
}
