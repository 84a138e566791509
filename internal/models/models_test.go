package models

import (
	"reflect"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAgeOn(t *testing.T) {
	now := date(2026, time.October, 14)
	tests := []struct {
		dob  time.Time
		want int
	}{
		{date(2000, time.October, 14), 26},
		{date(2000, time.October, 15), 25},
		{date(2000, time.September, 30), 26},
		{date(2000, time.November, 1), 25},
	}
	for _, tt := range tests {
		if got := AgeOn(tt.dob, now); got != tt.want {
			t.Errorf("AgeOn(%s) = %d, want %d", tt.dob.Format("2006-01-02"), got, tt.want)
		}
	}
}

func TestDeriveAge(t *testing.T) {
	dob := date(1990, time.January, 1)
	u := User{DateOfBirth: &dob}
	u.DeriveAge(date(2026, time.October, 14))
	if u.Age == nil || *u.Age != 36 {
		t.Fatalf("Age = %v, want 36", u.Age)
	}

	u.DateOfBirth = nil
	u.DeriveAge(time.Now())
	if u.Age != nil {
		t.Fatal("Age should be cleared without a date of birth")
	}
}

func TestMissingProfileFields(t *testing.T) {
	var empty User
	want := []string{FieldSkills, FieldProfileImage, FieldDateOfBirth, FieldGender, FieldAbout}
	if got := empty.MissingProfileFields(); !reflect.DeepEqual(got, want) {
		t.Fatalf("MissingProfileFields() = %v, want %v", got, want)
	}

	dob := date(1995, time.May, 5)
	complete := User{
		Skills:       []string{"go"},
		ProfileImage: ProfileImage{Key: "users/u1/1.png", IsUserUploaded: true},
		DateOfBirth:  &dob,
		Gender:       GenderWoman,
		About:        "backend dev",
	}
	if got := complete.MissingProfileFields(); len(got) != 0 {
		t.Fatalf("complete profile reported missing %v", got)
	}

	complete.ProfileImage.IsUserUploaded = false
	if got := complete.MissingProfileFields(); !reflect.DeepEqual(got, []string{FieldProfileImage}) {
		t.Fatalf("default image should count as missing, got %v", got)
	}
}

func TestRequestStatusTransitions(t *testing.T) {
	for _, s := range []RequestStatus{RequestStatusInterested, RequestStatusIgnored} {
		if !s.Sendable() || s.Reviewable() {
			t.Errorf("%s: expected sendable only", s)
		}
	}
	for _, s := range []RequestStatus{RequestStatusAccepted, RequestStatusRejected} {
		if s.Sendable() || !s.Reviewable() {
			t.Errorf("%s: expected reviewable only", s)
		}
	}
}

func TestOrderedPairAndOther(t *testing.T) {
	lo, hi := OrderedPair("b", "a")
	if lo != "a" || hi != "b" {
		t.Fatalf("OrderedPair = %s,%s", lo, hi)
	}
	r := ConnectionRequest{FromUserID: "a", ToUserID: "b"}
	if r.Other("a") != "b" || r.Other("b") != "a" {
		t.Fatal("Other must return the opposite party")
	}
}
