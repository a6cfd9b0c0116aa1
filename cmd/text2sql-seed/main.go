// text2sql-seed creates a small healthcare demo database for trying the
// service without a real data source. The rows are fixed so generated
// queries give reproducible answers.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/tamaraiselva/text2sql/internal/dbconn"
)

var demoDDL = []string{
	`CREATE TABLE PATIENTS (
		patient_id INTEGER PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		dob TEXT,
		gender TEXT,
		phone TEXT,
		insurance_id TEXT
	)`,
	`CREATE TABLE DEPARTMENTS (
		department_id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		head_doctor_id INTEGER
	)`,
	`CREATE TABLE DOCTORS (
		doctor_id INTEGER PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		specialization TEXT,
		department_id INTEGER REFERENCES DEPARTMENTS(department_id),
		license_number TEXT,
		phone TEXT
	)`,
	`CREATE TABLE APPOINTMENTS (
		appointment_id INTEGER PRIMARY KEY,
		patient_id INTEGER REFERENCES PATIENTS(patient_id),
		doctor_id INTEGER REFERENCES DOCTORS(doctor_id),
		appointment_date TEXT,
		status TEXT
	)`,
	`CREATE TABLE MEDICAL_RECORDS (
		record_id INTEGER PRIMARY KEY,
		patient_id INTEGER REFERENCES PATIENTS(patient_id),
		doctor_id INTEGER REFERENCES DOCTORS(doctor_id),
		diagnosis TEXT,
		prescription TEXT,
		record_date TEXT
	)`,
	`CREATE TABLE LAB_RESULTS (
		lab_id INTEGER PRIMARY KEY,
		patient_id INTEGER REFERENCES PATIENTS(patient_id),
		test_name TEXT,
		test_date TEXT,
		result_value REAL,
		reference_range TEXT
	)`,
}

var demoRows = []string{
	`INSERT INTO PATIENTS VALUES
		(1, 'Alice', 'Nguyen', '1985-04-12', 'F', '555-0101', 'INS-1001'),
		(2, 'Bruno', 'Costa', '1972-11-03', 'M', '555-0102', 'INS-1002'),
		(3, 'Chen', 'Wei', '1990-07-21', 'M', '555-0103', 'INS-1003'),
		(4, 'Dana', 'Okafor', '1964-01-30', 'F', '555-0104', 'INS-1004'),
		(5, 'Elena', 'Petrov', '2001-09-15', 'F', '555-0105', 'INS-1005')`,
	`INSERT INTO DEPARTMENTS VALUES
		(1, 'Cardiology', 1),
		(2, 'Endocrinology', 2),
		(3, 'General Medicine', 3)`,
	`INSERT INTO DOCTORS VALUES
		(1, 'Maria', 'Santos', 'Cardiology', 1, 'LIC-2001', '555-0201'),
		(2, 'James', 'Park', 'Endocrinology', 2, 'LIC-2002', '555-0202'),
		(3, 'Fatima', 'Khan', 'Internal Medicine', 3, 'LIC-2003', '555-0203')`,
	`INSERT INTO APPOINTMENTS VALUES
		(1, 1, 1, '2024-03-04', 'Completed'),
		(2, 2, 2, '2024-03-11', 'Completed'),
		(3, 3, 3, '2024-03-18', 'Cancelled'),
		(4, 4, 1, '2024-04-02', 'Scheduled'),
		(5, 1, 1, '2024-04-09', 'Scheduled'),
		(6, 5, 3, '2024-04-16', 'Scheduled')`,
	`INSERT INTO MEDICAL_RECORDS VALUES
		(1, 1, 1, 'Hypertension', 'Lisinopril 10mg', '2024-03-04'),
		(2, 2, 2, 'Type 2 diabetes', 'Metformin 500mg', '2024-03-11'),
		(3, 2, 2, 'Type 2 diabetes follow-up', 'Metformin 850mg', '2024-03-25'),
		(4, 4, 1, 'Arrhythmia', 'Metoprolol 25mg', '2024-04-02')`,
	`INSERT INTO LAB_RESULTS VALUES
		(1, 1, 'Total Cholesterol', '2024-03-01', 228.0, '< 200 mg/dL'),
		(2, 2, 'HbA1c', '2024-03-08', 7.9, '4.0 - 5.6 %'),
		(3, 3, 'Total Cholesterol', '2024-03-15', 172.0, '< 200 mg/dL'),
		(4, 4, 'Total Cholesterol', '2024-03-29', 241.0, '< 200 mg/dL'),
		(5, 5, 'TSH', '2024-04-05', 2.1, '0.4 - 4.0 mIU/L')`,
}

func main() {
	path := flag.String("path", "healthcare.db", "Path of the SQLite database to create")
	force := flag.Bool("force", false, "Overwrite an existing file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if _, err := os.Stat(*path); err == nil {
		if !*force {
			logger.Error("file already exists; pass -force to overwrite", slog.String("path", *path))
			os.Exit(1)
		}
		if err := os.Remove(*path); err != nil {
			logger.Error("failed to remove existing file", slog.Any("error", err))
			os.Exit(1)
		}
	}

	if err := seed(*path); err != nil {
		logger.Error("seeding failed", slog.Any("error", err))
		_ = os.Remove(*path)
		os.Exit(1)
	}

	logger.Info("demo database ready",
		slog.String("path", *path),
		slog.String("hint", "connect with kind=sqlite and this path"),
	)
}

func seed(path string) error {
	desc := &dbconn.Descriptor{Kind: dbconn.KindSQLite, Path: path}
	handle, err := dbconn.Connect(context.Background(), desc, 5*time.Second)
	if err != nil {
		return err
	}
	defer func() { _ = handle.Close() }()

	for _, stmt := range append(append([]string{}, demoDDL...), demoRows...) {
		if _, err := handle.DB().Exec(stmt); err != nil {
			return fmt.Errorf("seed statement failed: %w", err)
		}
	}
	return nil
}
