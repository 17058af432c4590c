// internal/domain/models/catalog.go
package models

// Canonical catalog enumerations.
//
// These values are stored verbatim in the database and are also the values
// the client sends and filters on, so they keep their display casing.
const (
	DepartmentEngineering           = "Engineering"
	DepartmentComputerScience       = "Computer Science"
	DepartmentInformationTechnology = "Information Technology"
	DepartmentElectronics           = "Electronics"
	DepartmentMechanical            = "Mechanical"
	DepartmentCivil                 = "Civil"
	DepartmentOther                 = "Other"
)

// Departments is the full set of allowed departments, shared by courses and
// student academic records.
var Departments = []string{
	DepartmentEngineering,
	DepartmentComputerScience,
	DepartmentInformationTechnology,
	DepartmentElectronics,
	DepartmentMechanical,
	DepartmentCivil,
	DepartmentOther,
}

// DefaultDepartment is assigned to auto-provisioned students.
const DefaultDepartment = DepartmentOther

// Categories is the full set of allowed course categories.
var Categories = []string{
	"Cloud Computing",
	"Artificial Intelligence",
	"Machine Learning",
	"Data Science",
	"Web Development",
	"Mobile Development",
	"Cybersecurity",
	"Software Engineering",
	"Database Management",
	"Network Engineering",
	"DevOps",
	"Blockchain",
	"IoT",
	"Robotics",
	"Embedded Systems",
	"Digital Electronics",
	"Power Systems",
	"Control Systems",
	"Structural Engineering",
	"Environmental Engineering",
	"Mechanical Design",
	"Thermodynamics",
	"Materials Science",
	"Project Management",
	"Other",
}

// Durations lists the allowed course durations.
var Durations = []string{"1 Month", "2 Months", "3 Months", "6 Months", "1 Year", "Custom"}

// Levels lists the allowed course levels.
var Levels = []string{"Beginner", "Intermediate", "Advanced"}

// Delivery modes for a course schedule.
const (
	ModeOnline  = "Online"
	ModeOffline = "Offline"
	ModeHybrid  = "Hybrid"
)

// Modes lists the allowed schedule delivery modes.
var Modes = []string{ModeOnline, ModeOffline, ModeHybrid}

// ResourceKinds lists the allowed course resource types.
var ResourceKinds = []string{"PDF", "Video", "Link", "Document"}

// Academic record enumerations.
var (
	Genders   = []string{"Male", "Female", "Other"}
	Years     = []string{"1st Year", "2nd Year", "3rd Year", "4th Year", "Graduate"}
	Semesters = []string{
		"1st Semester", "2nd Semester", "3rd Semester", "4th Semester",
		"5th Semester", "6th Semester", "7th Semester", "8th Semester",
	}
)

// Contains reports whether v is one of allowed (exact match).
func Contains(allowed []string, v string) bool {
	for _, a := range allowed {
		if a == v {
			return true
		}
	}
	return false
}
