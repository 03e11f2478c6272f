package insights

import (
	"strconv"
	"strings"
)

// persona frames a prompt as written for a specific expert role.
type persona struct {
	Role      string
	Goal      string
	Backstory string
}

var (
	spendingAnalyst = persona{
		Role: "Spending Behavior Analyst",
		Goal: "Analyze bank statements to identify spending patterns and categorize expenses",
		Backstory: "You are an expert financial data analyst with years of experience in personal " +
			"finance management. You are good at spotting spending patterns and categorizing " +
			"transactions so people understand their own financial behavior.",
	}

	financialAdvisor = persona{
		Role: "Personal Financial Advisor",
		Goal: "Provide personalized spending recommendations based on analyzed financial data",
		Backstory: "You are a certified financial advisor with expertise in personal finance and " +
			"budgeting. Your advice is practical, realistic for the person's situation and focused " +
			"on long-term financial wellness.",
	}
)

func (p persona) writeTo(b *strings.Builder) {
	b.WriteString("Role: " + p.Role + "\n")
	b.WriteString("Goal: " + p.Goal + "\n")
	b.WriteString(p.Backstory + "\n\n")
}

// BuildAnalysisPrompt embeds the transaction JSON in the spending analysis
// instructions.
func BuildAnalysisPrompt(transactionsJSON string) string {
	var b strings.Builder
	spendingAnalyst.writeTo(&b)

	b.WriteString("Analyze the JSON array of transactions provided below.\n\n")
	b.WriteString("CRITICAL: compute and show ACTUAL NUMBERS from the transaction data. Never use placeholders such as \"XXXX\".\n\n")
	b.WriteString("Transactions JSON:\n")
	b.WriteString(transactionsJSON)
	b.WriteString("\n\n")

	b.WriteString("Instructions:\n")
	b.WriteString("1. Parse the JSON array and read every transaction.\n")
	b.WriteString("2. Total spending is the sum of all negative amounts (expenses).\n")
	b.WriteString("3. Categorize each transaction from keywords in its description (grocery, food, restaurant, dining, coffee, bill, utility, subscription, UPI, transfer, service, ...).\n")
	b.WriteString("4. Compute the actual total spent per category and its percentage of total spending.\n")
	b.WriteString("5. Average daily spending is total spending divided by the number of days in the date range.\n")
	b.WriteString("6. Identify the largest transactions by absolute amount.\n\n")

	b.WriteString("IMPORTANT:\n")
	b.WriteString("- Use the currency symbol from the \"_currency\" field of the first transaction if present, otherwise infer it from the descriptions.\n")
	b.WriteString("- Show amounts with 2 decimal places.\n")
	b.WriteString("- If a date is \"Unknown\", estimate from transaction order.\n\n")

	b.WriteString("Answer in exactly this format:\n\n")
	b.WriteString("CATEGORIES:\n")
	b.WriteString("<category>: <amount>\n")
	b.WriteString("(one line per category found)\n\n")
	b.WriteString("TOP 5 CATEGORIES:\n")
	for i := 1; i <= 5; i++ {
		b.WriteString(strconv.Itoa(i) + ". <category> - <amount> - <percent>% of total spending\n")
	}
	b.WriteString("\nTOTAL SPENDING: <amount>\n\n")
	b.WriteString("AVERAGE DAILY SPENDING: <amount>\n\n")
	b.WriteString("LARGEST TRANSACTIONS:\n")
	for i := 1; i <= 5; i++ {
		b.WriteString(strconv.Itoa(i) + ". <exact description from the transaction> - <amount>\n")
	}
	b.WriteString("\nKEY INSIGHTS:\n")
	b.WriteString("- <insight naming actual categories and amounts>\n")
	b.WriteString("- <insight about spending patterns, with numbers>\n")
	b.WriteString("- <actionable insight based on the data>\n")
	return b.String()
}

// BuildRecommendationPrompt embeds a finished analysis, verbatim, in the
// recommendation instructions.
func BuildRecommendationPrompt(analysis string) string {
	var b strings.Builder
	financialAdvisor.writeTo(&b)

	b.WriteString("Use the spending analysis below to give personalized recommendations.\n\n")
	b.WriteString("CRITICAL: reference ACTUAL numbers and category names from the analysis. Never use placeholders.\n\n")
	b.WriteString("Analysis:\n")
	b.WriteString(analysis)
	b.WriteString("\n\n")

	b.WriteString("Instructions:\n")
	b.WriteString("1. Take the total spending, the categories with their amounts and the largest transactions from the analysis.\n")
	b.WriteString("2. Turn them into specific, actionable recommendations.\n")
	b.WriteString("3. Estimate the monthly savings potential from the actual spending patterns.\n")
	b.WriteString("4. Suggest monthly budgets that are realistic given the spending shown.\n")
	b.WriteString("5. Use the same currency symbol that appears in the analysis.\n\n")

	b.WriteString("Answer in exactly this format:\n\n")
	b.WriteString("PRIORITY RECOMMENDATIONS:\n")
	for i := 1; i <= 3; i++ {
		b.WriteString(strconv.Itoa(i) + ". <recommendation naming a category and amount from the analysis>\n")
	}
	b.WriteString("\nSUGGESTED BUDGETS:\n")
	b.WriteString("<category from the analysis>: <amount> per month\n")
	b.WriteString("(one line per main category)\n\n")
	b.WriteString("SAVINGS POTENTIAL: <amount> per month\n\n")
	b.WriteString("POSITIVE HABITS:\n")
	b.WriteString("- <habit reflected in the spending shown>\n")
	b.WriteString("- <habit that supports the person's goals>\n\n")
	b.WriteString("30-DAY ACTION PLAN:\n")
	b.WriteString("Week 1: <action based on actual categories or amounts>\n")
	b.WriteString("Week 2: <action based on spending patterns>\n")
	b.WriteString("Week 3: <action based on the largest transactions>\n")
	b.WriteString("Week 4: <action to keep the progress>\n")
	return b.String()
}
