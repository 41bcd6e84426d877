package classifier

import contractx "github.com/tanpawarit/chative-orchestrator/agent/contract"

type typeGroup struct {
	taskType TaskType
	keywords []string
}

// Checked in order; a description matching two groups takes the earlier one.
// No keyword here may be a substring of a complexity signal, otherwise adding
// a signal could change the type and lower the base score.
var typeGroups = []typeGroup{
	{TypeEventPlanning, []string{"event", "party", "wedding", "conference", "meetup", "celebration", "launch"}},
	{TypeProjectManagement, []string{"project", "product", "roadmap", "milestone", "sprint", "release", "develop", "software"}},
	{TypeLearning, []string{"learn", "study", "course", "tutorial", "exam", "skill", "practice"}},
	{TypeContentCreation, []string{"write", "blog", "article", "video", "post", "newsletter", "content", "draft"}},
	{TypeResearch, []string{"research", "investigate", "analyze", "analyse", "compare", "survey", "explore"}},
	{TypeWorkflowAutomation, []string{"automate", "automation", "workflow", "pipeline", "recurring", "routine"}},
}

var baseScores = map[TaskType]int{
	TypeSimpleTodo:         1,
	TypeLearning:           2,
	TypeContentCreation:    2,
	TypeResearch:           3,
	TypeEventPlanning:      3,
	TypeWorkflowAutomation: 4,
	TypeProjectManagement:  5,
}

type complexitySignal struct {
	keyword string
	weight  int
}

var complexitySignals = []complexitySignal{
	{"multiple", 1},
	{"several", 1},
	{"system", 2},
	{"strategy", 2},
	{"complex", 2},
	{"integration", 2},
	{"stakeholder", 2},
	{"cross-functional", 2},
	{"coordinate", 1},
	{"budget", 1},
	{"deadline", 1},
	{"team", 1},
	{"large", 1},
	{"long-term", 1},
	{"international", 2},
}

var approaches = map[contractx.Complexity]string{
	contractx.ComplexitySimple:   "direct execution: handle the request in a single step",
	contractx.ComplexityModerate: "structured breakdown: split the work into a few ordered steps with checkpoints",
	contractx.ComplexityComplex:  "phased plan: build a dependency-aware plan and track progress step by step",
}

var baseChallenges = map[contractx.Complexity][]string{
	contractx.ComplexitySimple:   {"keeping the task from being forgotten"},
	contractx.ComplexityModerate: {"keeping several steps in order", "holding to the timeline"},
	contractx.ComplexityComplex:  {"managing dependencies between phases", "scope creep", "competing demands on time and resources"},
}

var baseHours = map[contractx.Complexity]int{
	contractx.ComplexitySimple:   1,
	contractx.ComplexityModerate: 4,
	contractx.ComplexityComplex:  16,
}

type typeProfile struct {
	components []string
	challenges []string
	tools      []string
}

var profiles = map[TaskType]typeProfile{
	TypeSimpleTodo: {
		components: []string{"Complete the task"},
		tools:      []string{"addTodo", "completeTodo", "listTodos"},
	},
	TypeEventPlanning: {
		components: []string{
			"Define event goals and budget",
			"Plan venue and logistics",
			"Book vendors and send invitations",
			"Run the event",
			"Review event outcomes",
		},
		challenges: []string{"vendor availability", "guest coordination", "cost overruns"},
		tools:      []string{"planComplexTask", "addTodo", "listTodos", "completeTodo"},
	},
	TypeProjectManagement: {
		components: []string{
			"Define scope and requirements",
			"Design the solution",
			"Build the deliverables",
			"Test and ship",
			"Review project outcomes",
		},
		challenges: []string{"shifting requirements", "underestimated effort"},
		tools:      []string{"planComplexTask", "addTodo", "listTodos", "completeTodo"},
	},
	TypeLearning: {
		components: []string{
			"Set learning objectives",
			"Gather study materials",
			"Practice regularly",
			"Assess progress",
		},
		challenges: []string{"staying consistent", "measuring progress"},
		tools:      []string{"addTodo", "listTodos", "completeTodo"},
	},
	TypeContentCreation: {
		components: []string{
			"Outline the content",
			"Draft the content",
			"Edit and refine",
			"Publish and review reception",
		},
		challenges: []string{"writer's block", "editing time"},
		tools:      []string{"addTodo", "completeTodo"},
	},
	TypeResearch: {
		components: []string{
			"Define research questions",
			"Collect sources",
			"Analyze findings",
			"Summarize conclusions",
		},
		challenges: []string{"source reliability", "information overload"},
		tools:      []string{"addTodo", "listTodos"},
	},
	TypeWorkflowAutomation: {
		components: []string{
			"Map the current process",
			"Design the automation",
			"Implement the automation",
			"Monitor and review results",
		},
		challenges: []string{"edge cases in the existing process", "maintenance over time"},
		tools:      []string{"planComplexTask", "addTodo", "listTodos"},
	},
}
