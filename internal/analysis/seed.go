package analysis

// seedSample is one bootstrap training observation. The corpus below is
// what the service trains version 1 from at startup, so analysis works
// before any submissions have accumulated.
type seedSample struct {
	code     string
	language string
	label    string
}

var seedCorpus = []seedSample{
	{
		code:     "def binary_search(arr, target):\n    left, right = 0, len(arr)-1\n    while left <= right:\n        mid = (left + right) // 2\n        if arr[mid] == target:\n            return mid",
		language: "python",
		label:    "Binary Search",
	},
	{
		code:     "int search(int a[], int n, int t) {\n    int l = 0, r = n - 1;\n    while (l <= r) {\n        int mid = l + (r - l) / 2;\n        if (a[mid] == t) return mid;\n    }\n    return -1;\n}",
		language: "c",
		label:    "Binary Search",
	},
	{
		code:     "dp = [0] * (n+1)\ndp[1] = 1\nfor i in range(2, n+1):\n    dp[i] = dp[i-1] + dp[i-2]",
		language: "python",
		label:    "Dynamic Programming",
	},
	{
		code:     "memo = {}\ndef fib(n):\n    if n in memo:\n        return memo[n]\n    memo[n] = fib(n-1) + fib(n-2)\n    return memo[n]",
		language: "python",
		label:    "Dynamic Programming",
	},
	{
		code:     "def dfs(graph, node, visited):\n    visited.add(node)\n    for neighbor in graph[node]:\n        if neighbor not in visited:\n            dfs(graph, neighbor, visited)",
		language: "python",
		label:    "Graph Traversal",
	},
	{
		code:     "queue = [start]\nvisited = {start}\nwhile queue:\n    node = queue.pop(0)\n    for neighbor in adj[node]:\n        if neighbor not in visited:\n            visited.add(neighbor)\n            queue.append(neighbor)",
		language: "python",
		label:    "Graph Traversal",
	},
	{
		code:     "arr.sort()\nfor i in range(len(arr)):\n    print(arr[i])",
		language: "python",
		label:    "Sorting",
	},
	{
		code:     "def quicksort(a, lo, hi):\n    if lo < hi:\n        p = partition(a, lo, hi)\n        quicksort(a, lo, p-1)\n        quicksort(a, p+1, hi)",
		language: "python",
		label:    "Sorting",
	},
	{
		code:     "result = []\nfor i in range(len(arr)):\n    result.append(arr[i] * 2)",
		language: "python",
		label:    "Array Manipulation",
	},
	{
		code:     "vector<int> out;\nfor (int i = 0; i < n; i++) {\n    out.push_back(values[i] + offset);\n}",
		language: "cpp",
		label:    "Array Manipulation",
	},
	{
		code:     "text = input().strip()\nwords = text.split()\nresult = ' '.join(words)",
		language: "python",
		label:    "String Processing",
	},
	{
		code:     "char buf[256];\nint n = strlen(str);\nfor (int i = 0; i < n; i++) {\n    buf[i] = str[n - 1 - i];\n}",
		language: "c",
		label:    "String Processing",
	},
	{
		code:     "class TreeNode:\n    def __init__(self, val=0):\n        self.val = val\n        self.left = None\n        self.right = None",
		language: "python",
		label:    "Tree Algorithms",
	},
	{
		code:     "def inorder(root):\n    if root is None:\n        return\n    inorder(root.left)\n    visit(root)\n    inorder(root.right)",
		language: "python",
		label:    "Tree Algorithms",
	},
	{
		code:     "total = 0\nfor item in items:\n    if item > threshold:\n        total += item",
		language: "python",
		label:    "Greedy Algorithm",
	},
	{
		code:     "jobs.sort(key=lambda j: j.deadline)\nfor job in jobs:\n    if job.profit > best:\n        best = max(best, job.profit)",
		language: "python",
		label:    "Greedy Algorithm",
	},
	{
		code:     "def solve(board, row):\n    if row == n:\n        return True\n    for col in range(n):\n        if place(board, row, col):\n            if solve(board, row+1):\n                return True\n            board[row][col] = 0\n    return False",
		language: "python",
		label:    "Backtracking",
	},
	{
		code:     "def backtrack(path, choices):\n    if not choices:\n        results.append(path)\n        return\n    for c in choices:\n        backtrack(path + [c], [x for x in choices if x != c])",
		language: "python",
		label:    "Backtracking",
	},
	{
		code:     "import math\nresult = math.sqrt(x**2 + y**2)\nprint(result)",
		language: "python",
		label:    "Mathematics",
	},
	{
		code:     "def gcd(a, b):\n    while b:\n        a, b = b, a % b\n    return a",
		language: "python",
		label:    "Mathematics",
	},
	{
		code:     "x = int(input())\ny = int(input())\nprint(x + y)",
		language: "python",
		label:    "General Programming",
	},
	{
		code:     "int main() {\n    int a, b;\n    scanf(\"%d %d\", &a, &b);\n    printf(\"%d\\n\", a + b);\n    return 0;\n}",
		language: "c",
		label:    "General Programming",
	},
}

// SeedExamples extracts the bootstrap corpus into training examples.
func SeedExamples(extractor *Extractor) []Example {
	examples := make([]Example, 0, len(seedCorpus))
	for _, s := range seedCorpus {
		examples = append(examples, Example{
			Features: extractor.Extract(s.code, s.language),
			Label:    s.label,
		})
	}
	return examples
}

// TrainSeedModel trains the initial model (version 1) from the
// bootstrap corpus.
func TrainSeedModel(extractor *Extractor, cfg TrainConfig) (*Model, error) {
	return Train(1, SeedExamples(extractor), cfg)
}
